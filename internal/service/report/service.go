package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"reflect"
	"strings"

	"pennycentral/internal/domain"
	"pennycentral/internal/imageurl"
	reportrepo "pennycentral/internal/repository/report"
	itemsvc "pennycentral/internal/service/item"
	"pennycentral/internal/sku"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// ItemMerger receives the sighting carried by an approved report.
type ItemMerger interface {
	Observe(ctx context.Context, obs itemsvc.Observation) (*domain.Item, bool, error)
}

// SubmitInput is the public report form.
type SubmitInput struct {
	SKU         string `json:"sku"`
	ItemName    string `json:"itemName" validate:"required,max=200"`
	Brand       string `json:"brand" validate:"max=80"`
	StoreNumber string `json:"storeNumber" validate:"omitempty,numeric,max=6"`
	State       string `json:"state" validate:"required,len=2,alpha"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url,max=500"`
	Notes       string `json:"notes" validate:"max=1000"`
}

// Approval is the outcome of approving a report.
type Approval struct {
	Report      *domain.Report `json:"report"`
	Item        *domain.Item   `json:"item"`
	ItemCreated bool           `json:"itemCreated"`
}

type Service struct {
	repo     reportrepo.Repository
	items    ItemMerger
	skus     *sku.Validator
	validate *validator.Validate
	logger   *log.Logger
}

func New(repo reportrepo.Repository, items ItemMerger, skus *sku.Validator, logger *log.Logger) *Service {
	if skus == nil {
		skus = sku.NewValidator()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return &Service{repo: repo, items: items, skus: skus, validate: v, logger: logger}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// Submit validates a community report and stores it as pending.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domain.Report, error) {
	in.ItemName = strings.Join(strings.Fields(in.ItemName), " ")
	in.Brand = strings.TrimSpace(in.Brand)
	in.StoreNumber = strings.TrimPrefix(strings.TrimSpace(in.StoreNumber), "#")
	in.State = strings.ToUpper(strings.TrimSpace(in.State))
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Notes = strings.TrimSpace(in.Notes)

	var fields []domain.FieldError
	res := s.skus.Validate(in.SKU)
	if !res.Valid() {
		fields = append(fields, domain.FieldError{Field: "sku", Message: res.Err})
	}
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		fields = append(fields, translate(verrs)...)
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	created, err := s.repo.Create(ctx, domain.Report{
		SKU:         res.Normalized,
		ItemName:    in.ItemName,
		Brand:       in.Brand,
		StoreNumber: in.StoreNumber,
		State:       in.State,
		ImageURL:    imageurl.Detail(in.ImageURL),
		Notes:       in.Notes,
		Status:      domain.ReportPending,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("report service: submitted id=%s sku=%s", created.ID, sku.Mask(created.SKU))
	return created, nil
}

func translate(errs validator.ValidationErrors) []domain.FieldError {
	out := make([]domain.FieldError, 0, len(errs))
	for _, e := range errs {
		var msg string
		switch e.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", e.Field())
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
		case "len":
			msg = fmt.Sprintf("%s must be exactly %s characters", e.Field(), e.Param())
		case "alpha":
			msg = fmt.Sprintf("%s must contain only letters", e.Field())
		case "numeric":
			msg = fmt.Sprintf("%s must contain only digits", e.Field())
		case "url":
			msg = fmt.Sprintf("%s must be a valid URL", e.Field())
		default:
			msg = e.Error()
		}
		out = append(out, domain.FieldError{Field: e.Field(), Message: msg})
	}
	return out
}

// List returns reports with the given status, newest first. Empty status means pending.
func (s *Service) List(ctx context.Context, status string, limit int) ([]domain.Report, error) {
	st := domain.ReportStatus(strings.ToLower(strings.TrimSpace(status)))
	if st == "" {
		st = domain.ReportPending
	}
	switch st {
	case domain.ReportPending, domain.ReportApproved, domain.ReportRejected:
	default:
		return nil, domain.NewValidationError("status", "status must be pending, approved or rejected")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.ListByStatus(ctx, st, limit)
}

// Approve marks the report approved and merges it into the penny list. The
// status flip comes first so only one of two racing approvals gets to merge;
// if the merge fails the report goes back to pending.
func (s *Service) Approve(ctx context.Context, id string) (*Approval, error) {
	rep, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	reviewed, err := s.repo.MarkReviewed(ctx, rep.ID, domain.ReportApproved)
	if err != nil {
		return nil, err
	}

	it, created, err := s.items.Observe(ctx, itemsvc.Observation{
		SKU:         reviewed.SKU,
		Name:        reviewed.ItemName,
		Brand:       reviewed.Brand,
		ImageURL:    reviewed.ImageURL,
		CountReport: true,
	})
	if err != nil {
		if rerr := s.repo.Reopen(context.WithoutCancel(ctx), rep.ID); rerr != nil {
			s.logger.Printf("report service: reopen id=%s error=%v", rep.ID, rerr)
		}
		return nil, fmt.Errorf("merge report %s: %w", rep.ID, err)
	}
	s.logger.Printf("report service: approved id=%s sku=%s created=%t", rep.ID, sku.Mask(rep.SKU), created)
	return &Approval{Report: reviewed, Item: it, ItemCreated: created}, nil
}

func (s *Service) Reject(ctx context.Context, id string) (*domain.Report, error) {
	rep, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	reviewed, err := s.repo.MarkReviewed(ctx, rep.ID, domain.ReportRejected)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("report service: rejected id=%s", rep.ID)
	return reviewed, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) pending(ctx context.Context, id string) (*domain.Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep.Status != domain.ReportPending {
		return nil, fmt.Errorf("report %s is %s: %w", rep.ID, rep.Status, domain.ErrConflict)
	}
	return rep, nil
}
