// Package handler exposes the sale surface over HTTP. It stays thin: decode,
// delegate to the service, encode. Every mutating route requires an
// authenticated caller; owner checks live in the service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"dropspace/internal/platform/middleware"
	"dropspace/internal/sale/models"
	"dropspace/internal/sale/service"
	"dropspace/pkg/domain"
	domainerrors "dropspace/pkg/domain-errors"
	"dropspace/pkg/platform/httputil"
	"dropspace/pkg/requestcontext"
)

const idempotencyHeader = "Idempotency-Key"

// Service is the sale surface the handler delegates to.
type Service interface {
	Buy(ctx context.Context, caller domain.Address, amount, valueSent *uint256.Int, idempotencyKey string) (*models.Receipt, error)
	Reserve(ctx context.Context, caller domain.Address, amount *uint256.Int) (*service.IssueResult, error)

	SetBasePath(ctx context.Context, caller domain.Address, path string) (*models.Config, error)
	SetPerRequestLimit(ctx context.Context, caller domain.Address, limit *uint256.Int) (*models.Config, error)
	SetUnitPrice(ctx context.Context, caller domain.Address, price *uint256.Int) (*models.Config, error)
	SetUnitFee(ctx context.Context, caller domain.Address, fee *uint256.Int) (*models.Config, error)
	SetSaleStart(ctx context.Context, caller domain.Address, start uint64) (*models.Config, error)
	SetCap(ctx context.Context, caller domain.Address, cap *uint256.Int) (*models.Config, error)
	SetBeneficiaryPrimary(ctx context.Context, caller, addr domain.Address) (*models.Config, error)
	SetBeneficiaryFee(ctx context.Context, caller, addr domain.Address) (*models.Config, error)
	ToggleSaleWindow(ctx context.Context, caller domain.Address) (*models.Config, error)
	TransferOwnership(ctx context.Context, caller, next domain.Address) error

	Snapshot(ctx context.Context) (*service.Status, error)
	Config(ctx context.Context) (*models.Config, error)
	Collection() *models.Collection
	CollectionAttributes(ctx context.Context) (map[string]string, error)
	ItemLocator(ctx context.Context, id *uint256.Int) (string, error)
	ItemOwner(ctx context.Context, id *uint256.Int) (domain.Address, error)
	Receipt(ctx context.Context, id domain.ReceiptID) (*models.Receipt, error)
}

type Handler struct {
	logger    *slog.Logger
	sale      Service
	validator middleware.TokenValidator
}

func New(sale Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{logger: logger, sale: sale, validator: validator}
}

// Register mounts the sale routes. Reads are open; writes require a token.
func (h *Handler) Register(r chi.Router) {
	r.Route("/sale", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.Get("/config", h.handleGetConfig)
		r.Get("/collection", h.handleCollection)
		r.Get("/items/{id}", h.handleItem)
		r.Get("/receipts/{id}", h.handleReceipt)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Use(middleware.RequireAuth(h.validator, h.logger))
			r.Use(middleware.Timeout(30 * time.Second))

			r.Post("/buy", h.handleBuy)
			r.Post("/reserve", h.handleReserve)

			r.Put("/config/base-path", h.setConfig(h.applyBasePath))
			r.Put("/config/per-request-limit", h.setConfig(h.applyPerRequestLimit))
			r.Put("/config/unit-price", h.setConfig(h.applyUnitPrice))
			r.Put("/config/unit-fee", h.setConfig(h.applyUnitFee))
			r.Put("/config/cap", h.setConfig(h.applyCap))
			r.Put("/config/sale-start", h.handleSetSaleStart)
			r.Post("/config/sale-start/toggle", h.handleToggle)
			r.Put("/config/beneficiary/primary", h.setBeneficiary((Service).SetBeneficiaryPrimary))
			r.Put("/config/beneficiary/fee", h.setBeneficiary((Service).SetBeneficiaryFee))
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/owner/transfer", h.handleTransferOwnership)
	})
}

func (h *Handler) handleBuy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	value, err := parseAmount("value", req.Value)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.sale.Buy(ctx, caller, amount, value, r.Header.Get(idempotencyHeader))
	if err != nil {
		h.logger.WarnContext(ctx, "purchase rejected",
			slog.String("caller", string(caller)),
			slog.String("error", err.Error()))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toReceiptResponse(rec))
}

func (h *Handler) handleReserve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.sale.Reserve(ctx, caller, amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toReserveResponse(res))
}

// setConfig adapts the one-field configuration writes that share a
// {"value": "..."} body.
func (h *Handler) setConfig(apply func(ctx context.Context, caller domain.Address, value string) (*models.Config, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req setValueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
			return
		}
		cfg, err := apply(ctx, requestcontext.Caller(ctx), req.Value)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toConfigResponse(cfg))
	}
}

func (h *Handler) applyBasePath(ctx context.Context, caller domain.Address, value string) (*models.Config, error) {
	return h.sale.SetBasePath(ctx, caller, value)
}

func (h *Handler) applyPerRequestLimit(ctx context.Context, caller domain.Address, value string) (*models.Config, error) {
	limit, err := parseAmount("value", value)
	if err != nil {
		return nil, err
	}
	return h.sale.SetPerRequestLimit(ctx, caller, limit)
}

func (h *Handler) applyUnitPrice(ctx context.Context, caller domain.Address, value string) (*models.Config, error) {
	price, err := parseAmount("value", value)
	if err != nil {
		return nil, err
	}
	return h.sale.SetUnitPrice(ctx, caller, price)
}

func (h *Handler) applyUnitFee(ctx context.Context, caller domain.Address, value string) (*models.Config, error) {
	fee, err := parseAmount("value", value)
	if err != nil {
		return nil, err
	}
	return h.sale.SetUnitFee(ctx, caller, fee)
}

func (h *Handler) applyCap(ctx context.Context, caller domain.Address, value string) (*models.Config, error) {
	cap, err := parseAmount("value", value)
	if err != nil {
		return nil, err
	}
	return h.sale.SetCap(ctx, caller, cap)
}

func (h *Handler) handleSetSaleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req setStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	cfg, err := h.sale.SetSaleStart(ctx, requestcontext.Caller(ctx), req.Start)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConfigResponse(cfg))
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg, err := h.sale.ToggleSaleWindow(ctx, requestcontext.Caller(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConfigResponse(cfg))
}

func (h *Handler) setBeneficiary(apply func(Service, context.Context, domain.Address, domain.Address) (*models.Config, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req setAddressRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
			return
		}
		// An empty address unsets the beneficiary.
		var addr domain.Address
		if req.Address != "" {
			parsed, err := domain.ParseAddress(req.Address)
			if err != nil {
				httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, err.Error()))
				return
			}
			addr = parsed
		}
		cfg, err := apply(h.sale, ctx, requestcontext.Caller(ctx), addr)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toConfigResponse(cfg))
	}
}

func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transferOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	next, err := domain.ParseAddress(req.NextOwner)
	if err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, err.Error()))
		return
	}
	if err := h.sale.TransferOwnership(ctx, requestcontext.Caller(ctx), next); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := h.sale.Snapshot(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	attrs, err := h.sale.CollectionAttributes(ctx)
	if err != nil {
		attrs = nil
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		Collection: collectionResponse{
			ID:         st.Collection.ID,
			Name:       st.Collection.Name,
			Symbol:     st.Collection.Symbol,
			Attributes: attrs,
		},
		Config: toConfigResponse(st.Config),
		Issued: st.Issued.Dec(),
		Active: st.Active,
		Owner:  string(st.Owner),
		Policy: string(st.Policy),
	})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.sale.Config(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConfigResponse(cfg))
}

func (h *Handler) handleCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	col := h.sale.Collection()
	attrs, err := h.sale.CollectionAttributes(ctx)
	if err != nil {
		attrs = nil
	}
	httputil.WriteJSON(w, http.StatusOK, collectionResponse{
		ID:         col.ID,
		Name:       col.Name,
		Symbol:     col.Symbol,
		Attributes: attrs,
	})
}

func (h *Handler) handleItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseAmount("id", chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	locator, err := h.sale.ItemLocator(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := locatorResponse{ItemID: id.Dec(), Locator: locator}
	if owner, err := h.sale.ItemOwner(ctx, id); err == nil {
		resp.Owner = string(owner)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := h.sale.Receipt(r.Context(), domain.ReceiptID(chi.URLParam(r, "id")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReceiptResponse(rec))
}
