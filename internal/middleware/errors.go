package middleware

import (
	"encoding/json"
	"net/http"

	"idxcast/internal/errors"
	"idxcast/internal/infrastructure"
)

// Problem represents an RFC 7807 problem details object
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Trace  string `json:"trace_id,omitempty"`
}

// RenderProblem writes a problem response with the proper content type.
func RenderProblem(w http.ResponseWriter, r *http.Request, p Problem) {
	if p.Trace == "" {
		p.Trace = infrastructure.GetTraceID(r.Context())
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// statusByType maps pipeline error types to HTTP status codes.
var statusByType = map[errors.ErrorType]int{
	errors.ErrTypeInvalidConfiguration: http.StatusBadRequest,
	errors.ErrTypeInvalidInput:         http.StatusBadRequest,
	errors.ErrTypeNoMatchingRows:       http.StatusNotFound,
	errors.ErrTypeNoFeaturesSelected:   http.StatusUnprocessableEntity,
	errors.ErrTypeTargetMissing:        http.StatusUnprocessableEntity,
	errors.ErrTypeClassVariety:         http.StatusUnprocessableEntity,
	errors.ErrTypeNotFitted:            http.StatusConflict,
	errors.ErrTypeMissingDependency:    http.StatusNotImplemented,
	errors.ErrTypeParsing:              http.StatusBadRequest,
	errors.ErrTypeStorage:              http.StatusInternalServerError,
}

// ProblemFromError maps a pipeline error to a problem response. Unclassified
// errors become opaque 500s.
func ProblemFromError(err error) Problem {
	for errType, status := range statusByType {
		if errors.IsType(err, errType) {
			return Problem{
				Type:   string(errType),
				Title:  http.StatusText(status),
				Status: status,
				Detail: err.Error(),
			}
		}
	}
	return Problem{
		Type:   "internal-error",
		Title:  http.StatusText(http.StatusInternalServerError),
		Status: http.StatusInternalServerError,
	}
}
