package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	id "mastery/pkg/domain"
	"mastery/pkg/requestcontext"
)

// MockTokenValidator is a testify mock for TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(tokenString string) (*Claims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTokenRevocationChecker struct {
	mock.Mock
}

func (m *MockTokenRevocationChecker) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

type RequirePrincipalSuite struct {
	suite.Suite
	validator *MockTokenValidator
	revoked   *MockTokenRevocationChecker
	logger    *slog.Logger
	called    bool
	caller    id.Principal
}

func (s *RequirePrincipalSuite) SetupTest() {
	s.validator = new(MockTokenValidator)
	s.revoked = new(MockTokenRevocationChecker)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.called = false
	s.caller = ""
}

func (s *RequirePrincipalSuite) serve(authHeader string, checker TokenRevocationChecker) *httptest.ResponseRecorder {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.called = true
		s.caller = requestcontext.Principal(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	RequirePrincipal(s.validator, checker, s.logger)(next).ServeHTTP(w, req)
	return w
}

func TestRequirePrincipalSuite(t *testing.T) {
	suite.Run(t, new(RequirePrincipalSuite))
}

func (s *RequirePrincipalSuite) TestValidTokenSetsCaller() {
	s.validator.On("ValidateToken", "good").Return(&Claims{Subject: "alice", JTI: "j1"}, nil)
	s.revoked.On("IsTokenRevoked", mock.Anything, "j1").Return(false, nil)

	w := s.serve("Bearer good", s.revoked)

	s.Equal(http.StatusOK, w.Code)
	s.True(s.called)
	s.Equal(id.Principal("alice"), s.caller)
}

func (s *RequirePrincipalSuite) TestMissingHeader() {
	w := s.serve("", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(s.called)
	s.validator.AssertNotCalled(s.T(), "ValidateToken", mock.Anything)
}

func (s *RequirePrincipalSuite) TestInvalidToken() {
	s.validator.On("ValidateToken", "bad").Return(nil, errors.New("expired"))
	w := s.serve("Bearer bad", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(s.called)
}

func (s *RequirePrincipalSuite) TestRevokedToken() {
	s.validator.On("ValidateToken", "t").Return(&Claims{Subject: "alice", JTI: "j2"}, nil)
	s.revoked.On("IsTokenRevoked", mock.Anything, "j2").Return(true, nil)
	w := s.serve("Bearer t", s.revoked)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(s.called)
}

func (s *RequirePrincipalSuite) TestRevocationCheckFailure() {
	s.validator.On("ValidateToken", "t").Return(&Claims{Subject: "alice", JTI: "j3"}, nil)
	s.revoked.On("IsTokenRevoked", mock.Anything, "j3").Return(false, errors.New("redis down"))
	w := s.serve("Bearer t", s.revoked)
	s.Equal(http.StatusInternalServerError, w.Code)
}

func (s *RequirePrincipalSuite) TestNullPrincipalSubjectRejected() {
	s.validator.On("ValidateToken", "t").Return(&Claims{Subject: id.NullPrincipalWire}, nil)
	w := s.serve("Bearer t", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(s.called)
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := NewTokenService("secret", "mastery", time.Hour)

	token, err := svc.Issue("alice")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.NotEmpty(t, claims.JTI)
}

func TestTokenService_Rejections(t *testing.T) {
	svc := NewTokenService("secret", "mastery", time.Hour)
	token, err := svc.Issue("alice")
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		_, err := NewTokenService("other", "mastery", time.Hour).ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := NewTokenService("secret", "someone-else", time.Hour).ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenService("secret", "mastery", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("empty principal cannot be issued", func(t *testing.T) {
		_, err := svc.Issue("")
		assert.Error(t, err)
	})
}
