package httptransport

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certmint/internal/audit"
	"certmint/internal/authenticity"
	"certmint/internal/contentstore"
	"certmint/internal/issuance"
	issuancehandler "certmint/internal/issuance/handler"
	"certmint/internal/platform/health"
	"certmint/internal/platform/middleware"
	"certmint/internal/registry"
	registryhandler "certmint/internal/registry/handler"
	"certmint/internal/verification"
	id "certmint/pkg/domain"
)

var adminAddr = id.Address(strings.Repeat("A", 50) + "23456724")

type stubContent struct{}

func (stubContent) VerifyHash(context.Context, id.ContentHash) (contentstore.Verification, error) {
	return contentstore.Verification{Exists: true}, nil
}

type RouterSuite struct {
	suite.Suite
	router http.Handler
	tokens *middleware.TokenService
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.tokens = middleware.NewTokenService("test-signing-key", time.Hour)

	reg := registry.NewService(registry.NewInMemoryStore())
	s.Require().NoError(reg.Bootstrap(context.Background(), adminAddr))

	orch := verification.NewOrchestrator(reg, authenticity.NewChecklistChecker(authenticity.Config{}), stubContent{})
	trail := audit.NewPublisher(audit.NewInMemoryStore())
	exec := issuance.NewExecutor(
		issuance.NewInMemoryCredentialStore(), nil, issuance.NewInMemoryReconciliationStore(), reg)

	s.router = NewRouter(Deps{
		Logger:   logger,
		Tokens:   s.tokens,
		Health:   health.New("test"),
		Registry: registryhandler.New(reg, logger),
		Issuance: issuancehandler.New(orch, exec, trail, logger),
	})
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) TestHealthIsPublic() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestMetricsIsPublic() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestEngineRoutesRequireToken() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/issuers", nil))
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestEngineRoutesAcceptBearerToken() {
	token, err := s.tokens.Issue(adminAddr)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodGet, "/issuers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *RouterSuite) TestRejectsNonJSONContentType() {
	token, err := s.tokens.Issue(adminAddr)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, "/issuers", strings.NewReader("address=x"))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnsupportedMediaType, rec.Code)
}
