package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pennycentral/internal/adroute"
	"pennycentral/internal/analytics"
	"pennycentral/internal/domain"
	"pennycentral/internal/service/admin"
	reportsvc "pennycentral/internal/service/report"

	"github.com/gin-gonic/gin"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubItemService struct {
	items      []domain.Item
	item       *domain.Item
	err        error
	lastFilter domain.ItemFilter
	lastPatch  domain.ItemPatch
}

func (s *stubItemService) List(_ context.Context, f domain.ItemFilter) ([]domain.Item, error) {
	s.lastFilter = f
	return s.items, s.err
}

func (s *stubItemService) Get(_ context.Context, _ string) (*domain.Item, error) {
	return s.item, s.err
}

func (s *stubItemService) Patch(_ context.Context, _ string, p domain.ItemPatch) (*domain.Item, error) {
	s.lastPatch = p
	return s.item, s.err
}

func (s *stubItemService) Delete(_ context.Context, _ string) error {
	return s.err
}

type stubReportService struct {
	report   *domain.Report
	approval *reportsvc.Approval
	err      error
	lastIn   reportsvc.SubmitInput
}

func (s *stubReportService) Submit(_ context.Context, in reportsvc.SubmitInput) (*domain.Report, error) {
	s.lastIn = in
	return s.report, s.err
}

func (s *stubReportService) List(_ context.Context, _ string, _ int) ([]domain.Report, error) {
	if s.report == nil {
		return []domain.Report{}, s.err
	}
	return []domain.Report{*s.report}, s.err
}

func (s *stubReportService) Approve(_ context.Context, _ string) (*reportsvc.Approval, error) {
	return s.approval, s.err
}

func (s *stubReportService) Reject(_ context.Context, _ string) (*domain.Report, error) {
	return s.report, s.err
}

func (s *stubReportService) Delete(_ context.Context, _ string) error {
	return s.err
}

type stubStoreService struct {
	stores []domain.Store
	err    error
}

func (s *stubStoreService) List(_ context.Context, _ string) ([]domain.Store, error) {
	return s.stores, s.err
}

func (s *stubStoreService) Get(_ context.Context, number string) (*domain.Store, error) {
	for _, st := range s.stores {
		if st.Number == number {
			clone := st
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubAdmin struct{}

func (stubAdmin) Login(password string) (*admin.Token, error) {
	if password != "letmein" {
		return nil, domain.ErrUnauthorized
	}
	return &admin.Token{AccessToken: "good-token", ExpiresIn: 3600}, nil
}

func (stubAdmin) Verify(token string) error {
	if token != "good-token" {
		return domain.ErrUnauthorized
	}
	return nil
}

type stubTracker struct {
	events []analytics.Event
	err    error
}

func (s *stubTracker) Send(_ context.Context, _ string, ev analytics.Event) error {
	s.events = append(s.events, ev)
	return s.err
}

func testDeps() Deps {
	return Deps{
		ItemSvc:   &stubItemService{},
		ReportSvc: &stubReportService{},
		StoreSvc:  &stubStoreService{},
		Admin:     stubAdmin{},
	}
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, stop, err := buildRouter(logDiscard(), deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	t.Cleanup(stop)
	return router
}

func do(router *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestBuildRouter_RequiresServices(t *testing.T) {
	deps := testDeps()
	deps.StoreSvc = nil
	if _, _, err := buildRouter(logDiscard(), deps); err == nil {
		t.Fatalf("expected error for missing store service")
	}
}

func TestBuildRouter_GinMode(t *testing.T) {
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })
	for _, tc := range []struct {
		debug bool
		want  string
	}{
		{false, gin.ReleaseMode},
		{true, gin.DebugMode},
	} {
		deps := testDeps()
		deps.Debug = tc.debug
		_, stop, err := buildRouter(logDiscard(), deps)
		if err != nil {
			t.Fatalf("build router: %v", err)
		}
		stop()
		if got := gin.Mode(); got != tc.want {
			t.Fatalf("debug=%t: expected gin mode %q, got %q", tc.debug, tc.want, got)
		}
	}
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(t, testDeps())

	if rec := do(router, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without readiness checks, got %d", rec.Code)
	}
}

func TestReadyHandler_Checks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("refused") }
	for _, tc := range []struct {
		name   string
		checks []ReadinessCheck
		want   int
		report map[string]string
	}{
		{"all reachable", []ReadinessCheck{{"database", ok}, {"cache", ok}}, http.StatusOK,
			map[string]string{"database": "ok", "cache": "ok"}},
		{"cache down", []ReadinessCheck{{"database", ok}, {"cache", down}}, http.StatusServiceUnavailable,
			map[string]string{"database": "ok", "cache": "unreachable"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/readyz", readyHandler(tc.checks))
			rec := do(router, http.MethodGet, "/readyz", "")
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			var body struct {
				Checks map[string]string `json:"checks"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.Checks) != len(tc.report) {
				t.Fatalf("expected checks %v, got %v", tc.report, body.Checks)
			}
			for k, v := range tc.report {
				if body.Checks[k] != v {
					t.Fatalf("check %s: expected %q, got %q", k, v, body.Checks[k])
				}
			}
		})
	}
}

func TestBuildRouter_RejectsUnnamedCheck(t *testing.T) {
	deps := testDeps()
	deps.Readiness = []ReadinessCheck{{Ping: func(context.Context) error { return nil }}}
	if _, _, err := buildRouter(logDiscard(), deps); err == nil {
		t.Fatalf("expected error for unnamed readiness check")
	}
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(t, testDeps())

	rec := do(router, http.MethodGet, "/healthz", "")
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
	rec = do(router, http.MethodGet, "/healthz", "", requestIDHeader, "abc-123")
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestListItems_PassesFilter(t *testing.T) {
	items := &stubItemService{items: []domain.Item{{SKU: "123456", Name: "Husky Tool Box"}}}
	deps := testDeps()
	deps.ItemSvc = items
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodGet, "/api/penny-list?state=ga&limit=10&offset=20", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if items.lastFilter != (domain.ItemFilter{State: "ga", Limit: 10, Offset: 20}) {
		t.Fatalf("unexpected filter %+v", items.lastFilter)
	}
	var resp itemListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Items[0].SKU != "123456" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestListItems_BadLimit(t *testing.T) {
	router := newTestRouter(t, testDeps())

	rec := do(router, http.MethodGet, "/api/penny-list?limit=ten", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.StatusCode != http.StatusBadRequest || len(resp.Errors) != 1 || resp.Errors[0].Field != "limit" {
		t.Fatalf("unexpected error body %+v", resp)
	}
}

func TestGetItem_NotFound(t *testing.T) {
	deps := testDeps()
	deps.ItemSvc = &stubItemService{err: domain.ErrNotFound}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodGet, "/api/items/123456", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.StatusCode != http.StatusNotFound || resp.Errors == nil {
		t.Fatalf("unexpected error body %+v", resp)
	}
}

func TestGetItem_InvalidSKU(t *testing.T) {
	deps := testDeps()
	deps.ItemSvc = &stubItemService{err: domain.NewValidationError("sku", "SKU must be 6 or 10 digits")}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodGet, "/api/items/12", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Errors[0].Message != "SKU must be 6 or 10 digits" {
		t.Fatalf("unexpected error body %+v", resp)
	}
}

func TestInternalErrorIsHidden(t *testing.T) {
	deps := testDeps()
	deps.ItemSvc = &stubItemService{err: errors.New("pq: connection reset")}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodGet, "/api/penny-list", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestAdminRoutes_RequireBearerToken(t *testing.T) {
	items := &stubItemService{item: &domain.Item{SKU: "123456", Name: "Renamed"}}
	deps := testDeps()
	deps.ItemSvc = items
	router := newTestRouter(t, deps)

	body := `{"name":"Renamed","force":true}`
	if rec := do(router, http.MethodPatch, "/api/admin/items/123456", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := do(router, http.MethodPatch, "/api/admin/items/123456", body, "Authorization", "Bearer nope"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	rec := do(router, http.MethodPatch, "/api/admin/items/123456", body, "Authorization", "Bearer good-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if items.lastPatch.Name == nil || *items.lastPatch.Name != "Renamed" || !items.lastPatch.Force {
		t.Fatalf("unexpected patch %+v", items.lastPatch)
	}

	if rec := do(router, http.MethodDelete, "/api/admin/items/123456", "", "Authorization", "Bearer good-token"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	router := newTestRouter(t, testDeps())

	rec := do(router, http.MethodPost, "/api/admin/login", `{"password":"letmein"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"accessToken":"good-token"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	if rec := do(router, http.MethodPost, "/api/admin/login", `{"password":"wrong"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := do(router, http.MethodPost, "/api/admin/login", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", rec.Code)
	}
}

func TestSubmitReport_CreatedAndRateLimited(t *testing.T) {
	reports := &stubReportService{report: &domain.Report{ID: "r1", SKU: "123456", Status: domain.ReportPending}}
	deps := testDeps()
	deps.ReportSvc = reports
	deps.Submissions = SubmissionLimit{PerMinute: 1, Burst: 1}
	router := newTestRouter(t, deps)

	body := `{"sku":"123-456","itemName":"Husky Tool Box","state":"GA"}`
	rec := do(router, http.MethodPost, "/api/reports", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if reports.lastIn.SKU != "123-456" || reports.lastIn.State != "GA" {
		t.Fatalf("unexpected input %+v", reports.lastIn)
	}

	rec = do(router, http.MethodPost, "/api/reports", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected error body %+v", resp)
	}
}

func TestSubmitReport_MalformedJSON(t *testing.T) {
	router := newTestRouter(t, testDeps())
	rec := do(router, http.MethodPost, "/api/reports", `{"sku":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestModeration(t *testing.T) {
	auth := []string{"Authorization", "Bearer good-token"}

	t.Run("approve", func(t *testing.T) {
		deps := testDeps()
		deps.ReportSvc = &stubReportService{approval: &reportsvc.Approval{
			Report:      &domain.Report{ID: "r1", Status: domain.ReportApproved},
			Item:        &domain.Item{SKU: "123456", ReportCount: 1},
			ItemCreated: true,
		}}
		router := newTestRouter(t, deps)

		rec := do(router, http.MethodPost, "/api/admin/reports/r1/approve", "", auth...)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"itemCreated":true`) {
			t.Fatalf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("already reviewed", func(t *testing.T) {
		deps := testDeps()
		deps.ReportSvc = &stubReportService{err: domain.ErrConflict}
		router := newTestRouter(t, deps)

		if rec := do(router, http.MethodPost, "/api/admin/reports/r1/reject", "", auth...); rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("list", func(t *testing.T) {
		deps := testDeps()
		deps.ReportSvc = &stubReportService{report: &domain.Report{ID: "r1", Status: domain.ReportPending}}
		router := newTestRouter(t, deps)

		rec := do(router, http.MethodGet, "/api/admin/reports?status=pending", "", auth...)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":1`) {
			t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("delete missing", func(t *testing.T) {
		deps := testDeps()
		deps.ReportSvc = &stubReportService{err: domain.ErrNotFound}
		router := newTestRouter(t, deps)

		if rec := do(router, http.MethodDelete, "/api/admin/reports/r1", "", auth...); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestStores(t *testing.T) {
	deps := testDeps()
	deps.StoreSvc = &stubStoreService{stores: []domain.Store{{Number: "0121", City: "Atlanta", State: "GA"}}}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodGet, "/api/stores?state=GA", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"storeNumber":"0121"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(router, http.MethodGet, "/api/stores/9999", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAdConfig(t *testing.T) {
	deps := testDeps()
	deps.Launch = adroute.LaunchConfig{StickyEnabled: true, PilotRoutes: []string{"/guide"}}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodGet, "/api/ads/config?path=/Guide/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var rc adroute.RouteConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &rc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rc.Path != "/guide" || !rc.Allowed() || !rc.Sticky || !rc.Pilot {
		t.Fatalf("unexpected config %+v", rc)
	}

	rec = do(router, http.MethodGet, "/api/ads/config?path=/admin/reports", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &rc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rc.Allowed() || rc.Sticky {
		t.Fatalf("admin route must exclude ads, got %+v", rc)
	}
}

func TestTrack(t *testing.T) {
	tracker := &stubTracker{}
	deps := testDeps()
	deps.Tracker = tracker
	router := newTestRouter(t, deps)

	body := `{"name":"report_submit","params":{"sku":"1001234567","source":"footer","state":"GA"}}`
	rec := do(router, http.MethodPost, "/api/track", body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp trackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := resp.Params["sku"]; ok {
		t.Fatalf("sku must be stripped: %+v", resp.Params)
	}
	if resp.Params["ui_source"] != "footer" || resp.Params["state"] != "GA" {
		t.Fatalf("unexpected params %+v", resp.Params)
	}
	if len(tracker.events) != 1 || tracker.events[0].Name != "report_submit" {
		t.Fatalf("expected one relayed event, got %+v", tracker.events)
	}
}

func TestTrack_InvalidNameAndRelayFailure(t *testing.T) {
	tracker := &stubTracker{err: errors.New("collector down")}
	deps := testDeps()
	deps.Tracker = tracker
	router := newTestRouter(t, deps)

	if rec := do(router, http.MethodPost, "/api/track", `{"name":"Bad Name"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := do(router, http.MethodPost, "/api/track", `{"name":"page_view"}`); rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 despite relay failure, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	deps := testDeps()
	deps.AllowedOrigins = []string{"https://pennycentral.example"}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodOptions, "/api/reports", "",
		"Origin", "https://pennycentral.example",
		"Access-Control-Request-Method", "POST")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://pennycentral.example" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter(t, testDeps())
	rec := do(router, http.MethodGet, "/api/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
