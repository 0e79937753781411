package httpserver

import (
	"errors"
	"log"
	"net/http"

	"pennycentral/internal/domain"

	"github.com/gin-gonic/gin"
)

var errRateLimited = errors.New("too many submissions, try again later")

type errorResponse struct {
	StatusCode int                 `json:"statusCode"`
	Message    string              `json:"message"`
	Errors     []domain.FieldError `json:"errors"`
}

// writeError maps domain errors to a status and the shared error body.
// Unexpected errors are logged and hidden behind a generic message.
func writeError(c *gin.Context, logger *log.Logger, err error) {
	resp := errorResponse{Errors: []domain.FieldError{}}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		resp.StatusCode = http.StatusBadRequest
		resp.Message = verr.Error()
		resp.Errors = verr.Fields
	case errors.Is(err, errRateLimited):
		resp.StatusCode = http.StatusTooManyRequests
		resp.Message = err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		resp.StatusCode = http.StatusBadRequest
		resp.Message = err.Error()
	case errors.Is(err, domain.ErrNotFound):
		resp.StatusCode = http.StatusNotFound
		resp.Message = "resource not found"
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		resp.StatusCode = http.StatusConflict
		resp.Message = err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		resp.StatusCode = http.StatusUnauthorized
		resp.Message = "unauthorized"
	default:
		if logger != nil {
			logger.Printf("http: request_id=%s path=%s error=%v", c.GetString(requestIDKey), c.Request.URL.Path, err)
		}
		resp.StatusCode = http.StatusInternalServerError
		resp.Message = "internal error"
	}
	c.JSON(resp.StatusCode, resp)
}

func badJSON(c *gin.Context, err error) {
	writeError(c, nil, domain.NewValidationError("body", "malformed JSON: "+err.Error()))
}
