package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"mastery/internal/ledger/collaborator"
	"mastery/internal/ledger/service"
	"mastery/internal/ledger/store"
	id "mastery/pkg/domain"
	"mastery/pkg/platform/httputil"
	"mastery/pkg/platform/middleware/auth"
)

const (
	adminPrincipal = id.Principal("admin")
	alice          = id.Principal("alice")
	bob            = id.Principal("bob")
	currentHeight  = id.BlockHeight(100)
	proofHex       = "0x0101010101010101010101010101010101010101010101010101010101010101"
)

type fixedHeight id.BlockHeight

func (h fixedHeight) Height(context.Context) id.BlockHeight { return id.BlockHeight(h) }

type HandlerSuite struct {
	suite.Suite
	router http.Handler
	tokens *auth.TokenService
	nft    *collaborator.NFTRegistry
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.nft = collaborator.NewNFTRegistry()
	svc := service.NewService(store.NewInMemory(), adminPrincipal, logger,
		service.WithFeeCollector(collaborator.NewBank()),
		service.WithMinter(s.nft),
		service.WithRewardPayer(collaborator.NewRewardPool()),
	)
	s.tokens = auth.NewTokenService("test-key", "mastery", time.Hour)

	r := chi.NewRouter()
	r.Use(auth.RequirePrincipal(s.tokens, nil, logger))
	New(svc, fixedHeight(currentHeight), logger).Register(r)
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(caller id.Principal, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if caller != "" {
		token, err := s.tokens.Issue(caller)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(dst))
}

func (s *HandlerSuite) assertError(rec *httptest.ResponseRecorder, status int, code string) {
	s.T().Helper()
	s.Equal(status, rec.Code, rec.Body.String())
	var body httputil.ErrorResponse
	s.decode(rec, &body)
	s.Equal(code, body.Error)
}

func submitBody(overrides map[string]any) string {
	body := map[string]any{
		"course_id":         1,
		"score":             85,
		"threshold":         70,
		"proof_hash":        proofHex,
		"verification_type": "quiz",
		"difficulty":        5,
		"expiry":            1000,
		"metadata":          "Intro to Go",
	}
	for k, v := range overrides {
		if v == nil {
			delete(body, k)
			continue
		}
		body[k] = v
	}
	raw, _ := json.Marshal(body)
	return string(raw)
}

func (s *HandlerSuite) TestTokenRequired() {
	rec := s.do("", http.MethodGet, "/verifications/count", "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestSubmitAndRead() {
	rec := s.do(adminPrincipal, http.MethodPut, "/admin/nft-collaborator", `{"principal":"nft-contract"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(alice, http.MethodPost, "/verifications", submitBody(nil))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created SubmitResponse
	s.decode(rec, &created)
	s.Equal(uint64(0), created.VerificationID)

	rec = s.do(bob, http.MethodGet, "/verifications/0", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var v VerificationResponse
	s.decode(rec, &v)
	s.Equal("alice", v.User)
	s.Equal(int64(85), v.Score)
	s.Equal(uint64(currentHeight), v.BlockHeight)
	s.Equal(strings.TrimPrefix(proofHex, "0x"), v.ProofHash)
	s.Equal("quiz", v.VerificationType)
	s.Empty(v.Verifier)
	s.True(v.Status)

	rec = s.do(bob, http.MethodGet, "/verifications/count", "")
	var count CountResponse
	s.decode(rec, &count)
	s.Equal(uint64(1), count.Count)

	rec = s.do(bob, http.MethodGet, "/users/alice/courses/1/status", "")
	var status StatusResponse
	s.decode(rec, &status)
	s.True(status.Passed)

	rec = s.do(bob, http.MethodGet, "/certificates/0", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var cert CertificateResponse
	s.decode(rec, &cert)
	s.Equal("alice", cert.Owner)
	s.Equal("Intro to Go", cert.Metadata)

	owner, ok := s.nft.OwnerOf(0)
	s.True(ok)
	s.Equal(alice, owner)
}

func (s *HandlerSuite) TestSubmitRejections() {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"course_id":`, http.StatusBadRequest, "bad_request"},
		{"missing score", submitBody(map[string]any{"score": nil}), http.StatusBadRequest, "validation_error"},
		{"non-positive course", submitBody(map[string]any{"course_id": 0}), http.StatusBadRequest, "invalid_course_id"},
		{"score above range", submitBody(map[string]any{"score": 101}), http.StatusBadRequest, "invalid_score"},
		{"zero threshold", submitBody(map[string]any{"threshold": 0}), http.StatusBadRequest, "invalid_threshold"},
		{"proof not hex", submitBody(map[string]any{"proof_hash": "not-hex"}), http.StatusBadRequest, "invalid_proof"},
		{"short proof", submitBody(map[string]any{"proof_hash": "abcd"}), http.StatusBadRequest, "invalid_proof"},
		{"unknown type", submitBody(map[string]any{"verification_type": "essay"}), http.StatusBadRequest, "invalid_verification_type"},
		{"type in upper case", submitBody(map[string]any{"verification_type": "QUIZ"}), http.StatusBadRequest, "invalid_verification_type"},
		{"type with padding", submitBody(map[string]any{"verification_type": " quiz "}), http.StatusBadRequest, "invalid_verification_type"},
		{"type in mixed case", submitBody(map[string]any{"verification_type": "Oracle"}), http.StatusBadRequest, "invalid_verification_type"},
		{"difficulty too high", submitBody(map[string]any{"difficulty": 11}), http.StatusBadRequest, "invalid_difficulty"},
		{"expired", submitBody(map[string]any{"expiry": uint64(currentHeight)}), http.StatusBadRequest, "invalid_expiry"},
		{"metadata too long", submitBody(map[string]any{"metadata": strings.Repeat("x", 257)}), http.StatusBadRequest, "invalid_metadata"},
		{"oracle type without oracle role", submitBody(map[string]any{"verification_type": "oracle"}), http.StatusForbidden, "oracle_not_authorized"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(alice, http.MethodPost, "/verifications", tt.body)
			s.assertError(rec, tt.status, tt.code)
		})
	}
}

func (s *HandlerSuite) TestSubmitDuplicate() {
	rec := s.do(alice, http.MethodPost, "/verifications", submitBody(nil))
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(alice, http.MethodPost, "/verifications", submitBody(map[string]any{"score": 90}))
	s.assertError(rec, http.StatusConflict, "already_verified")
}

func (s *HandlerSuite) TestSubmitCapacity() {
	rec := s.do(adminPrincipal, http.MethodPut, "/admin/max-verifications", `{"max_verifications":1}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(alice, http.MethodPost, "/verifications", submitBody(nil))
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(bob, http.MethodPost, "/verifications", submitBody(nil))
	s.assertError(rec, http.StatusUnprocessableEntity, "max_verifications_exceeded")
}

func (s *HandlerSuite) TestUpdate() {
	rec := s.do(alice, http.MethodPost, "/verifications", submitBody(nil))
	s.Require().Equal(http.StatusCreated, rec.Code)

	s.Run("unknown verification", func() {
		rec := s.do(alice, http.MethodPut, "/verifications/7", `{"score":50,"threshold":70}`)
		s.assertError(rec, http.StatusUnprocessableEntity, "not_verified")
	})

	s.Run("not the owner", func() {
		rec := s.do(bob, http.MethodPut, "/verifications/0", `{"score":50,"threshold":70}`)
		s.assertError(rec, http.StatusForbidden, "not_authorized")
	})

	s.Run("invalid score", func() {
		rec := s.do(alice, http.MethodPut, "/verifications/0", `{"score":-1,"threshold":70}`)
		s.assertError(rec, http.StatusBadRequest, "invalid_score")
	})

	s.Run("bad id", func() {
		rec := s.do(alice, http.MethodPut, "/verifications/abc", `{"score":50,"threshold":70}`)
		s.assertError(rec, http.StatusBadRequest, "bad_request")
	})

	s.Run("owner corrects the score", func() {
		rec := s.do(alice, http.MethodPut, "/verifications/0", `{"score":50,"threshold":70}`)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		var v VerificationResponse
		s.decode(rec, &v)
		s.False(v.Status)
		s.Equal(int64(50), v.Score)

		rec = s.do(bob, http.MethodGet, "/verifications/0/update", "")
		s.Require().Equal(http.StatusOK, rec.Code)
		var u UpdateResponse
		s.decode(rec, &u)
		s.Equal("alice", u.Updater)
		s.Equal(uint64(currentHeight), u.UpdatedAt)
	})
}

func (s *HandlerSuite) TestReadsOfMissingRecords() {
	s.assertError(s.do(alice, http.MethodGet, "/verifications/3", ""), http.StatusNotFound, "not_found")
	s.assertError(s.do(alice, http.MethodGet, "/verifications/3/update", ""), http.StatusNotFound, "not_found")
	s.assertError(s.do(alice, http.MethodGet, "/certificates/3", ""), http.StatusNotFound, "not_found")
	s.assertError(s.do(alice, http.MethodGet, "/users/alice/courses/x/status", ""), http.StatusBadRequest, "bad_request")

	rec := s.do(alice, http.MethodGet, "/users/nobody/courses/9/status", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var status StatusResponse
	s.decode(rec, &status)
	s.False(status.Passed)
}

func (s *HandlerSuite) TestAdminSetters() {
	s.Run("defaults", func() {
		rec := s.do(alice, http.MethodGet, "/admin/config", "")
		s.Require().Equal(http.StatusOK, rec.Code)
		var cfg ConfigResponse
		s.decode(rec, &cfg)
		s.Equal("admin", cfg.Admin)
		s.Equal(int64(500), cfg.VerificationFee)
		s.Equal(int64(10000), cfg.MaxVerifications)
		s.Empty(cfg.Oracle)
	})

	s.Run("non-admin is rejected", func() {
		rec := s.do(alice, http.MethodPut, "/admin/fee", `{"fee":10}`)
		s.assertError(rec, http.StatusForbidden, "not_authorized")
	})

	s.Run("negative fee", func() {
		rec := s.do(adminPrincipal, http.MethodPut, "/admin/fee", `{"fee":-1}`)
		s.assertError(rec, http.StatusBadRequest, "invalid_update_param")
	})

	s.Run("zero cap", func() {
		rec := s.do(adminPrincipal, http.MethodPut, "/admin/max-verifications", `{"max_verifications":0}`)
		s.assertError(rec, http.StatusBadRequest, "invalid_update_param")
	})

	s.Run("null principal", func() {
		rec := s.do(adminPrincipal, http.MethodPut, "/admin/oracle", `{"principal":"`+id.NullPrincipalWire+`"}`)
		s.assertError(rec, http.StatusUnprocessableEntity, "not_verified")
	})

	s.Run("blank principal", func() {
		rec := s.do(adminPrincipal, http.MethodPut, "/admin/reward-collaborator", `{"principal":"  "}`)
		s.assertError(rec, http.StatusBadRequest, "validation_error")
	})

	s.Run("admin changes settings", func() {
		rec := s.do(adminPrincipal, http.MethodPut, "/admin/fee", `{"fee":0}`)
		s.Require().Equal(http.StatusOK, rec.Code)

		rec = s.do(adminPrincipal, http.MethodPut, "/admin/oracle", `{"principal":"oracle"}`)
		s.Require().Equal(http.StatusOK, rec.Code)
		var cfg ConfigResponse
		s.decode(rec, &cfg)
		s.Equal(int64(0), cfg.VerificationFee)
		s.Equal("oracle", cfg.Oracle)
	})
}

func (s *HandlerSuite) TestOracleSubmissionRecordsVerifier() {
	rec := s.do(adminPrincipal, http.MethodPut, "/admin/oracle", `{"principal":"oracle"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do("oracle", http.MethodPost, "/verifications", submitBody(map[string]any{"verification_type": "oracle"}))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(alice, http.MethodGet, "/verifications/0", "")
	var v VerificationResponse
	s.decode(rec, &v)
	s.Equal("oracle", v.Verifier)
	s.Equal("oracle", v.User)
}

func TestRejectionsAreLoggedOnce(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	svc := service.NewService(store.NewInMemory(), adminPrincipal, logger)
	tokens := auth.NewTokenService("test-key", "mastery", time.Hour)
	r := chi.NewRouter()
	r.Use(auth.RequirePrincipal(tokens, nil, logger))
	New(svc, fixedHeight(currentHeight), logger).Register(r)

	token, err := tokens.Issue(alice)
	require.NoError(t, err)
	send := func(method, path, body string) int {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		msg    string
	}{
		{"submit", http.MethodPost, "/verifications", submitBody(map[string]any{"score": 101}), "verification rejected"},
		{"update", http.MethodPut, "/verifications/7", `{"score":50,"threshold":70}`, "verification update rejected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			status := send(tt.method, tt.path, tt.body)
			require.GreaterOrEqual(t, status, http.StatusBadRequest)

			warnings := strings.Count(logs.String(), `"level":"WARN"`)
			assert.Equal(t, 1, warnings, logs.String())
			assert.Equal(t, 1, strings.Count(logs.String(), `"msg":"`+tt.msg+`"`), logs.String())
		})
	}
}
