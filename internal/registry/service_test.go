package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	id "certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
)

var (
	adminAddr  = id.Address(strings.Repeat("A", 50) + "23456724")
	issuerAddr = id.Address(strings.Repeat("B", 50) + "23456724")
	otherAddr  = id.Address(strings.Repeat("C", 50) + "23456724")
)

type ServiceSuite struct {
	suite.Suite
	store *InMemoryStore
	svc   *Service
	ctx   context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.svc = NewService(s.store)
	s.ctx = context.Background()
	s.Require().NoError(s.svc.Bootstrap(s.ctx, adminAddr))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestBootstrapDoesNotReplaceExistingAdmin() {
	s.Require().NoError(s.svc.Bootstrap(s.ctx, otherAddr))

	admin, ok, err := s.store.GetAdmin(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(adminAddr, admin)
}

func (s *ServiceSuite) TestAddIssuerRequiresAdmin() {
	err := s.svc.AddIssuer(s.ctx, otherAddr, issuerAddr, "Springfield University", nil)
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
}

func (s *ServiceSuite) TestAddIssuerRejectsEmptyName() {
	err := s.svc.AddIssuer(s.ctx, adminAddr, issuerAddr, "  ", nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestReAddActiveIssuerUpdatesRecord() {
	s.Require().NoError(s.svc.AddIssuer(s.ctx, adminAddr, issuerAddr, "Springfield University", nil))

	err := s.svc.AddIssuer(s.ctx, adminAddr, issuerAddr, "Springfield Institute",
		map[string]string{"country": "US"})
	s.Require().NoError(err, "re-adding an active issuer is an idempotent update")

	issuer, err := s.svc.Lookup(s.ctx, issuerAddr)
	s.Require().NoError(err)
	s.True(issuer.Authorized)
	s.Equal("Springfield Institute", issuer.Name)
	s.Equal("US", issuer.Metadata["country"])

	count, err := s.svc.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count, "refreshing an active issuer must not advance the counter")
}

func (s *ServiceSuite) TestRemoveIssuerNotFound() {
	err := s.svc.RemoveIssuer(s.ctx, adminAddr, issuerAddr)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestAuthorizationLifecycle() {
	authorized, err := s.svc.IsAuthorized(s.ctx, issuerAddr)
	s.Require().NoError(err)
	s.False(authorized, "unknown issuer must not be authorized")

	s.Require().NoError(s.svc.AddIssuer(s.ctx, adminAddr, issuerAddr, "Springfield University", nil))
	authorized, err = s.svc.IsAuthorized(s.ctx, issuerAddr)
	s.Require().NoError(err)
	s.True(authorized)

	s.Require().NoError(s.svc.RemoveIssuer(s.ctx, adminAddr, issuerAddr))
	authorized, err = s.svc.IsAuthorized(s.ctx, issuerAddr)
	s.Require().NoError(err)
	s.False(authorized, "removed issuer must not be authorized")
}

func (s *ServiceSuite) TestReAddDoesNotDoubleCount() {
	s.Require().NoError(s.svc.AddIssuer(s.ctx, adminAddr, issuerAddr, "Springfield University", nil))

	count, err := s.svc.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)

	s.Require().NoError(s.svc.RemoveIssuer(s.ctx, adminAddr, issuerAddr))
	s.Require().NoError(s.svc.AddIssuer(s.ctx, adminAddr, issuerAddr, "Springfield University", nil))

	count, err = s.svc.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count, "re-adding a removed issuer must not advance the counter")

	authorized, err := s.svc.IsAuthorized(s.ctx, issuerAddr)
	s.Require().NoError(err)
	s.True(authorized)
}

func (s *ServiceSuite) TestRemoveIsIdempotentOnTombstone() {
	s.Require().NoError(s.svc.AddIssuer(s.ctx, adminAddr, issuerAddr, "Springfield University", nil))
	s.Require().NoError(s.svc.RemoveIssuer(s.ctx, adminAddr, issuerAddr))
	s.Require().NoError(s.svc.RemoveIssuer(s.ctx, adminAddr, issuerAddr))
}

func (s *ServiceSuite) TestLookupReturnsTombstone() {
	s.Require().NoError(s.svc.AddIssuer(s.ctx, adminAddr, issuerAddr, "Springfield University", nil))
	s.Require().NoError(s.svc.RemoveIssuer(s.ctx, adminAddr, issuerAddr))

	issuer, err := s.svc.Lookup(s.ctx, issuerAddr)
	s.Require().NoError(err)
	s.False(issuer.Authorized)
	s.Equal("Springfield University", issuer.Name)
}

func (s *ServiceSuite) TestTransferAdmin() {
	err := s.svc.TransferAdmin(s.ctx, otherAddr, otherAddr)
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))

	s.Require().NoError(s.svc.TransferAdmin(s.ctx, adminAddr, otherAddr))

	// Old admin loses its powers immediately.
	err = s.svc.AddIssuer(s.ctx, adminAddr, issuerAddr, "Springfield University", nil)
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
	s.Require().NoError(s.svc.AddIssuer(s.ctx, otherAddr, issuerAddr, "Springfield University", nil))
}
