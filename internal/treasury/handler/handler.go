// Package handler exposes the treasury sweep over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"dropspace/internal/platform/middleware"
	"dropspace/pkg/domain"
	domainerrors "dropspace/pkg/domain-errors"
	"dropspace/pkg/platform/httputil"
	"dropspace/pkg/requestcontext"
)

// Service is the treasury surface the handler delegates to.
type Service interface {
	Sweep(ctx context.Context, caller, recipient domain.Address) (*uint256.Int, error)
	Account() domain.Address
}

type Handler struct {
	logger    *slog.Logger
	treasury  Service
	validator middleware.TokenValidator
}

func New(treasury Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{logger: logger, treasury: treasury, validator: validator}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/treasury", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/sweep", h.handleSweep)
	})
}

type sweepRequest struct {
	Recipient string `json:"recipient,omitempty"`
}

type sweepResponse struct {
	Swept     string `json:"swept"`
	Recipient string `json:"recipient"`
}

// handleSweep drains the sale account. The recipient defaults to the caller.
func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req sweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	recipient := caller
	if req.Recipient != "" {
		parsed, err := domain.ParseAddress(req.Recipient)
		if err != nil {
			httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, err.Error()))
			return
		}
		recipient = parsed
	}

	swept, err := h.treasury.Sweep(ctx, caller, recipient)
	if err != nil {
		h.logger.WarnContext(ctx, "sweep rejected",
			slog.String("caller", string(caller)),
			slog.String("error", err.Error()))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sweepResponse{Swept: swept.Dec(), Recipient: string(recipient)})
}
