package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"idxcast/internal/middleware"
	"idxcast/internal/services"
)

var validate = validator.New()

// TrainHandler handles data preparation and training requests
type TrainHandler struct {
	service *services.PipelineService
	logger  *slog.Logger
}

// NewTrainHandler creates a new train handler
func NewTrainHandler(service *services.PipelineService, logger *slog.Logger) *TrainHandler {
	return &TrainHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "train")),
	}
}

// prepareResponse summarizes a preparation-only run.
type prepareResponse struct {
	Pattern     string   `json:"pattern"`
	Instruments []string `json:"instruments"`
	Rows        int      `json:"rows"`
	Features    []string `json:"features"`
	Target      string   `json:"target"`
}

// decodeRequest parses and validates the JSON body.
func (h *TrainHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (services.TrainRequest, bool) {
	var req services.TrainRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		middleware.RenderProblem(w, r, middleware.Problem{
			Type:   "malformed-request",
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: "request body is not valid JSON",
		})
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		middleware.RenderProblem(w, r, middleware.Problem{
			Type:   "validation-failed",
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
		})
		return req, false
	}
	return req, true
}

// Prepare handles POST /api/v1/prepare
func (h *TrainHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	artifact, err := h.service.Prepare(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "preparation failed",
			slog.String("pattern", req.Pattern),
			slog.String("error", err.Error()))
		middleware.RenderProblem(w, r, middleware.ProblemFromError(err))
		return
	}

	render.JSON(w, r, prepareResponse{
		Pattern:     artifact.Pattern,
		Instruments: artifact.Instruments,
		Rows:        artifact.Frame.Len(),
		Features:    artifact.Features,
		Target:      artifact.Target,
	})
}

// Train handles POST /api/v1/train
func (h *TrainHandler) Train(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	timeout := h.service.ParseTimeout(r.Header.Get("X-Train-Timeout-Seconds"))
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	start := time.Now()
	report, err := h.service.Train(ctx, req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "training failed",
			slog.String("pattern", req.Pattern),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		middleware.RenderProblem(w, r, middleware.ProblemFromError(err))
		return
	}

	render.JSON(w, r, report)
}
