package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certmint/internal/platform/middleware"
	"certmint/internal/registry"
	id "certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
	"certmint/pkg/platform/httputil"
)

// Service defines the registry operations the handler needs.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	AddIssuer(ctx context.Context, caller, address id.Address, name string, metadata map[string]string) error
	RemoveIssuer(ctx context.Context, caller, address id.Address) error
	Lookup(ctx context.Context, address id.Address) (*registry.Issuer, error)
	TransferAdmin(ctx context.Context, caller, newAdmin id.Address) error
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/issuers", h.HandleAddIssuer)
	r.Delete("/issuers/{address}", h.HandleRemoveIssuer)
	r.Get("/issuers/{address}", h.HandleGetIssuer)
	r.Get("/issuers", h.HandleCountIssuers)
	r.Post("/admin/transfer", h.HandleTransferAdmin)
}

// HandleAddIssuer authorizes a new issuing account. Admin only.
func (h *Handler) HandleAddIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndValidate[AddIssuerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	address, _ := id.ParseAddress(req.Address)
	if err := h.service.AddIssuer(ctx, middleware.Caller(ctx), address, req.Name, req.Metadata); err != nil {
		h.logger.ErrorContext(ctx, "add issuer failed", "error", err, "request_id", requestID, "issuer", req.Address)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &StatusResponse{Status: "authorized"})
}

// HandleRemoveIssuer tombstones an issuer. Admin only.
func (h *Handler) HandleRemoveIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	address, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid issuer address"))
		return
	}

	if err := h.service.RemoveIssuer(ctx, middleware.Caller(ctx), address); err != nil {
		h.logger.ErrorContext(ctx, "remove issuer failed", "error", err, "request_id", requestID, "issuer", address.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "removed"})
}

// HandleGetIssuer returns the issuer record, tombstones included.
func (h *Handler) HandleGetIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	address, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid issuer address"))
		return
	}

	issuer, err := h.service.Lookup(ctx, address)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toIssuerResponse(issuer))
}

// HandleCountIssuers reports how many distinct issuers were ever registered.
func (h *Handler) HandleCountIssuers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.service.Count(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &CountResponse{TotalIssuers: count})
}

// HandleTransferAdmin hands the registry to a new admin. Admin only.
func (h *Handler) HandleTransferAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndValidate[TransferAdminRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	newAdmin, _ := id.ParseAddress(req.NewAdmin)
	if err := h.service.TransferAdmin(ctx, middleware.Caller(ctx), newAdmin); err != nil {
		h.logger.ErrorContext(ctx, "transfer admin failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "transferred"})
}
