package registry

import (
	"context"
	"log/slog"
	"time"

	"certmint/internal/audit"
	"certmint/internal/platform/metrics"
	"certmint/internal/platform/middleware"
	id "certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
)

// AuditPublisher receives registry lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service owns issuer authorization: who may issue credentials, and who
// administers that list. All mutating operations are admin-gated.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor AuditPublisher
	now     func() time.Time
}

type serviceConfig struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor AuditPublisher
	now     func() time.Time
}

// Option configures the Service.
type Option func(c *serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(c *serviceConfig) { c.auditor = p }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(c *serviceConfig) { c.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	cfg := &serviceConfig{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		store:   store,
		logger:  cfg.logger,
		metrics: cfg.metrics,
		auditor: cfg.auditor,
		now:     cfg.now,
	}
}

// Bootstrap installs the initial admin. It is a no-op when an admin is
// already set so restarts cannot hijack an operating registry.
func (s *Service) Bootstrap(ctx context.Context, admin id.Address) error {
	if admin.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "admin address required")
	}
	_, ok, err := s.store.GetAdmin(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read admin record")
	}
	if ok {
		return nil
	}
	if err := s.store.SetAdmin(ctx, admin); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "registry admin bootstrapped", "admin", admin.String())
	}
	return nil
}

// AddIssuer creates, re-enables, or refreshes an issuer record. Only the
// admin may call it. The call is an idempotent toggle: re-adding an
// active issuer updates its name and metadata, and a tombstone flips
// back to authorized. The issuer counter advances only on first
// creation.
func (s *Service) AddIssuer(ctx context.Context, caller, address id.Address, name string, metadata map[string]string) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}

	issuer, err := NewIssuer(address, name, metadata, s.now())
	if err != nil {
		return err
	}

	existing, ok, err := s.store.GetIssuer(ctx, address)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read issuer record")
	}
	if ok {
		issuer.RegisteredAt = existing.RegisteredAt
		if err := s.store.PutIssuer(ctx, issuer); err != nil {
			return err
		}
		if existing.Authorized {
			s.emit(ctx, audit.EventIssuerAdded, address, "updated")
		} else {
			s.emit(ctx, audit.EventIssuerAdded, address, "re-enabled")
		}
		return nil
	}

	if err := s.store.PutIssuer(ctx, issuer); err != nil {
		return err
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read issuer counter")
	}
	if err := s.store.SetCount(ctx, count+1); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.IncrementIssuersRegistered()
	}
	s.emit(ctx, audit.EventIssuerAdded, address, "registered")
	return nil
}

// RemoveIssuer tombstones an issuer record. The record is kept with
// Authorized=false so the counter stays stable across remove/re-add.
func (s *Service) RemoveIssuer(ctx context.Context, caller, address id.Address) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	issuer, ok, err := s.store.GetIssuer(ctx, address)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read issuer record")
	}
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "issuer not found")
	}
	if !issuer.Authorized {
		return nil
	}
	issuer.Authorized = false
	if err := s.store.PutIssuer(ctx, issuer); err != nil {
		return err
	}
	s.emit(ctx, audit.EventIssuerRemoved, address, "removed")
	return nil
}

// IsAuthorized reports whether the address may issue credentials.
// Unknown addresses and tombstoned records both return false.
func (s *Service) IsAuthorized(ctx context.Context, address id.Address) (bool, error) {
	issuer, ok, err := s.store.GetIssuer(ctx, address)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read issuer record")
	}
	return ok && issuer.Authorized, nil
}

// Lookup returns the issuer record, including tombstones.
func (s *Service) Lookup(ctx context.Context, address id.Address) (*Issuer, error) {
	issuer, ok, err := s.store.GetIssuer(ctx, address)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read issuer record")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "issuer not found")
	}
	return issuer, nil
}

// IsAdmin reports whether the address is the current registry admin.
func (s *Service) IsAdmin(ctx context.Context, address id.Address) (bool, error) {
	admin, ok, err := s.store.GetAdmin(ctx)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read admin record")
	}
	return ok && admin == address, nil
}

// TransferAdmin hands the registry to a new admin address.
func (s *Service) TransferAdmin(ctx context.Context, caller, newAdmin id.Address) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if newAdmin.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "new admin address required")
	}
	if err := s.store.SetAdmin(ctx, newAdmin); err != nil {
		return err
	}
	s.emit(ctx, audit.EventAdminTransferred, newAdmin, "transferred")
	return nil
}

// Count returns the number of distinct issuers ever registered.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read issuer counter")
	}
	return n, nil
}

func (s *Service) requireAdmin(ctx context.Context, caller id.Address) error {
	admin, ok, err := s.store.GetAdmin(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read admin record")
	}
	if !ok || admin != caller {
		return dErrors.New(dErrors.CodePermissionDenied, "caller is not the registry admin")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, subject id.Address, decision string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event),
			"issuer", subject.String(),
			"decision", decision,
			"log_type", "audit",
		)
	}
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		Issuer:    subject.String(),
		Action:    string(event),
		Decision:  decision,
		RequestID: middleware.GetRequestID(ctx),
	}); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
