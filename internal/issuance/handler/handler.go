package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certmint/internal/audit"
	"certmint/internal/credential"
	"certmint/internal/issuance"
	"certmint/internal/platform/middleware"
	"certmint/internal/verification"
	id "certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
	"certmint/pkg/platform/httputil"
)

// Verifier evaluates candidate credentials.
type Verifier interface {
	Evaluate(ctx context.Context, req credential.Request) (verification.Outcome, error)
}

// Issuer mints and manages credentials.
type Issuer interface {
	Execute(ctx context.Context, req credential.Request, outcome verification.Outcome) (*credential.Credential, error)
	Status(ctx context.Context, candidateID id.CandidateID) (credential.IssuanceStatus, *credential.Credential, error)
	Get(ctx context.Context, candidateID id.CandidateID) (*credential.Credential, error)
	Revoke(ctx context.Context, caller id.Address, candidateID id.CandidateID) (*credential.Credential, error)
	Partials(ctx context.Context) ([]issuance.PartialRecord, error)
}

// AuditReader lists the audit trail for a candidate.
type AuditReader interface {
	List(ctx context.Context, candidateID string) ([]audit.Event, error)
}

type Handler struct {
	verifier Verifier
	issuer   Issuer
	trail    AuditReader
	logger   *slog.Logger
}

func New(verifier Verifier, issuer Issuer, trail AuditReader, logger *slog.Logger) *Handler {
	return &Handler{verifier: verifier, issuer: issuer, trail: trail, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials/verify-layers", h.HandleVerifyLayers)
	r.Post("/credentials/issue", h.HandleIssue)
	r.Post("/credentials/revoke", h.HandleRevoke)
	r.Get("/credentials/status/{candidateID}", h.HandleStatus)
	r.Get("/credentials/{candidateID}", h.HandleGet)
	r.Get("/credentials/{candidateID}/audit", h.HandleAuditTrail)
	r.Get("/admin/partials", h.HandlePartials)
}

// HandleVerifyLayers evaluates a candidate without minting. A deny is a
// 200 with admitted=false; only a layer that could not be evaluated at
// all becomes an HTTP error.
func (h *Handler) HandleVerifyLayers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndValidate[CredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.verifier.Evaluate(ctx, req.toDomain(middleware.Caller(ctx)))
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed", "error", err, "request_id", requestID, "candidate_id", req.CandidateID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

// HandleIssue runs the full pipeline: evaluate, then mint and record when
// admitted. A denial returns the outcome with status "denied" rather than
// an error; the caller asked a question and got an answer.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndValidate[CredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	domainReq := req.toDomain(middleware.Caller(ctx))

	outcome, err := h.verifier.Evaluate(ctx, domainReq)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed", "error", err, "request_id", requestID, "candidate_id", req.CandidateID)
		httputil.WriteError(w, err)
		return
	}

	if !outcome.Admitted {
		httputil.WriteJSON(w, http.StatusOK, &IssueResponse{
			Status:  "denied",
			Outcome: toOutcomeResponse(outcome),
		})
		return
	}

	cred, err := h.issuer.Execute(ctx, domainReq, outcome)
	if err != nil {
		var partial *issuance.PartialIssuanceError
		if errors.As(err, &partial) {
			h.logger.ErrorContext(ctx, "partial issuance", "error", err, "request_id", requestID,
				"candidate_id", req.CandidateID, "token_id", partial.TokenID.String())
			httputil.WriteJSON(w, http.StatusInternalServerError, &PartialIssuanceResponse{
				Error:            string(dErrors.CodePartialIssuance),
				ErrorDescription: "token minted but credential recording failed; retry to complete the recording step",
				CandidateID:      partial.CandidateID.String(),
				TokenID:          partial.TokenID.String(),
			})
			return
		}
		h.logger.ErrorContext(ctx, "issuance failed", "error", err, "request_id", requestID, "candidate_id", req.CandidateID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &IssueResponse{
		Status:     "issued",
		Credential: toCredentialResponse(cred),
		Outcome:    toOutcomeResponse(outcome),
	})
}

// HandleRevoke deactivates a credential. Issuer-or-admin only.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndValidate[RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cred, err := h.issuer.Revoke(ctx, middleware.Caller(ctx), id.CandidateID(req.CandidateID))
	if err != nil {
		h.logger.ErrorContext(ctx, "revoke failed", "error", err, "request_id", requestID, "candidate_id", req.CandidateID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCredentialResponse(cred))
}

// HandleStatus answers issued / partial / not_issued for a candidate.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidateID := id.CandidateID(chi.URLParam(r, "candidateID"))

	status, cred, err := h.issuer.Status(ctx, candidateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := &StatusResponse{CandidateID: candidateID.String(), Status: string(status)}
	if cred != nil {
		resp.Credential = toCredentialResponse(cred)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet returns the credential record. An optional expected_hash
// query parameter adds a hash_match field so holders can verify a
// presented document against the recorded content hash in one call.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cred, err := h.issuer.Get(ctx, id.CandidateID(chi.URLParam(r, "candidateID")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := toCredentialResponse(cred)
	if expected := r.URL.Query().Get("expected_hash"); expected != "" {
		match := cred.Active && cred.ContentHash.String() == expected
		resp.HashMatch = &match
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleAuditTrail returns the audit events for a candidate.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.trail.List(ctx, chi.URLParam(r, "candidateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toAuditEventResponses(events))
}

// HandlePartials lists outstanding partial issuances for operators.
func (h *Handler) HandlePartials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.issuer.Partials(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toPartialRecordResponses(records))
}
