package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"vibegate/internal/audit"
	"vibegate/internal/ledger"
	"vibegate/internal/ledger/badge"
	"vibegate/internal/ledger/token"
	"vibegate/internal/platform/logger"
	"vibegate/internal/policy"
	"vibegate/internal/registry"
	registrystore "vibegate/internal/registry/store"
	"vibegate/internal/rewards"
	rewardstore "vibegate/internal/rewards/store"
	"vibegate/internal/verifier"
)

// =============================================================================
// HTTP Transport Test Suite
// =============================================================================
// Justification for unit tests: the role gates, status code mapping and the
// JSON error envelope are transport contracts that service-level tests cannot
// cover. An accept-all hub keeps the pipeline real without proof material.

const signingKey = "test-signing-key"

type acceptAllHub struct{}

func (acceptAllHub) Verify(context.Context, []byte, verifier.PublicSignals) error { return nil }

type TransportSuite struct {
	suite.Suite
	cfg     policy.Config
	tokens  *token.Ledger
	manager *ledger.Manager
	server  *httptest.Server
}

func TestTransportSuite(t *testing.T) {
	suite.Run(t, new(TransportSuite))
}

func (s *TransportSuite) SetupTest() {
	s.cfg = policy.Config{
		ScopeHash:     policy.ScopeHashFor("https://vibegate.local/verify", "vibe-humanity"),
		AttestationID: 1,
		MinimumAge:    18,
	}

	log := logger.New("error")
	auditor := audit.NewPublisher(audit.NewInMemoryStore())

	verifierSvc, err := verifier.New(s.cfg, acceptAllHub{})
	s.Require().NoError(err)

	registrySvc, err := registry.New(registrystore.NewInMemoryStore())
	s.Require().NoError(err)

	s.tokens = token.NewLedger("root")
	badges := badge.NewRegistry("root")
	s.manager = ledger.NewManager("root", s.tokens, badges)
	s.Require().NoError(s.manager.Bootstrap("engine"))

	rewardSvc, err := rewards.New(
		registrySvc,
		rewardstore.NewInMemoryAmountStore(policy.DefaultAwardAmounts()),
		rewardstore.NewInMemoryIssuanceStore(),
		s.manager,
		s.manager,
	)
	s.Require().NoError(err)

	handler := NewHandler(verifierSvc, registrySvc, rewardSvc, s.manager, auditor, log, nil)
	s.server = httptest.NewServer(NewRouter(handler, []byte(signingKey)))
	s.T().Cleanup(s.server.Close)
}

func (s *TransportSuite) token(role, subject string) string {
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	s.Require().NoError(err)
	return signed
}

func (s *TransportSuite) do(method, path, bearer string, body any) (*http.Response, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (s *TransportSuite) verifyBody(address, nullifier string) map[string]any {
	return map[string]any{
		"address": address,
		"proof":   []byte("opaque"),
		"public_signals": map[string]any{
			"scope_hash":     s.cfg.ScopeHash,
			"attestation_id": 1,
			"nullifier":      nullifier,
			"age":            25,
			"country_code":   250,
		},
	}
}

// =============================================================================
// Verification Endpoint Tests
// =============================================================================

func (s *TransportSuite) TestVerifyEndpoint() {
	const alice = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	const bob = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	s.Run("first verification succeeds", func() {
		resp, body := s.do(http.MethodPost, "/verify", "", s.verifyBody(alice, "0x01"))
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal("first_verification", body["status"])
		s.Equal(alice, body["address"])
	})

	s.Run("re-verification is idempotent", func() {
		resp, body := s.do(http.MethodPost, "/verify", "", s.verifyBody(alice, "0x01"))
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal("already_verified", body["status"])
	})

	s.Run("nullifier replay from another address conflicts", func() {
		resp, body := s.do(http.MethodPost, "/verify", "", s.verifyBody(bob, "0x01"))
		s.Equal(http.StatusConflict, resp.StatusCode)
		s.Equal("nullifier_replay", body["error"])
	})

	s.Run("age below the floor is unprocessable", func() {
		payload := s.verifyBody(bob, "0x02")
		payload["public_signals"].(map[string]any)["age"] = 17

		resp, body := s.do(http.MethodPost, "/verify", "", payload)
		s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
		s.Equal("age_below_threshold", body["error"])
	})

	s.Run("wrong scope is unprocessable", func() {
		payload := s.verifyBody(bob, "0x02")
		payload["public_signals"].(map[string]any)["scope_hash"] = "0xffff"

		resp, body := s.do(http.MethodPost, "/verify", "", payload)
		s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
		s.Equal("scope_mismatch", body["error"])
	})

	s.Run("malformed address is a bad request", func() {
		resp, _ := s.do(http.MethodPost, "/verify", "", s.verifyBody("nope", "0x03"))
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *TransportSuite) TestStatusEndpoint() {
	const alice = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	s.Run("unverified address reports false", func() {
		resp, body := s.do(http.MethodGet, "/registry/"+alice+"/status", "", nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal(false, body["verified"])
	})

	s.Run("verified address reports true", func() {
		resp, _ := s.do(http.MethodPost, "/verify", "", s.verifyBody(alice, "0x05"))
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		resp, body := s.do(http.MethodGet, "/registry/"+alice+"/status", "", nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal(true, body["verified"])
	})
}

// =============================================================================
// Issuance Endpoint Tests
// =============================================================================

func (s *TransportSuite) TestIssueEndpoint() {
	const alice = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	authority := s.token(RoleAuthority, "reward-bot")

	s.Run("requires a bearer token", func() {
		resp, body := s.do(http.MethodPost, "/rewards/issue", "", map[string]any{
			"address": alice, "award_type": "GOVERNANCE_EXPERT",
		})
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
		s.Equal("unauthorized", body["error"])
	})

	s.Run("owner token cannot issue", func() {
		resp, _ := s.do(http.MethodPost, "/rewards/issue", s.token(RoleOwner, "boss"), map[string]any{
			"address": alice, "award_type": "GOVERNANCE_EXPERT",
		})
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})

	s.Run("unverified address is forbidden", func() {
		resp, body := s.do(http.MethodPost, "/rewards/issue", authority, map[string]any{
			"address": alice, "award_type": "GOVERNANCE_EXPERT",
		})
		s.Equal(http.StatusForbidden, resp.StatusCode)
		s.Equal("not_verified", body["error"])
	})

	s.Run("verified address receives the bundle", func() {
		resp, _ := s.do(http.MethodPost, "/verify", "", s.verifyBody(alice, "0x06"))
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		resp, body := s.do(http.MethodPost, "/rewards/issue", authority, map[string]any{
			"address": alice, "award_type": "GOVERNANCE_EXPERT",
		})
		s.Equal(http.StatusCreated, resp.StatusCode)
		s.Equal("GOVERNANCE_EXPERT", body["award_type"])
		s.Equal(float64(750), body["amount"])
		s.NotEmpty(body["asset_id"])
	})

	s.Run("repeat issuance conflicts", func() {
		resp, body := s.do(http.MethodPost, "/rewards/issue", authority, map[string]any{
			"address": alice, "award_type": "GOVERNANCE_EXPERT",
		})
		s.Equal(http.StatusConflict, resp.StatusCode)
		s.Equal("duplicate_issuance", body["error"])
	})

	s.Run("unknown award type is a bad request", func() {
		resp, _ := s.do(http.MethodPost, "/rewards/issue", authority, map[string]any{
			"address": alice, "award_type": "PARTICIPATION_TROPHY",
		})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *TransportSuite) TestIssuanceLookupEndpoint() {
	const alice = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	authority := s.token(RoleAuthority, "reward-bot")

	s.Run("requires a bearer token", func() {
		resp, _ := s.do(http.MethodGet, "/rewards/"+alice+"/TOP_CONTRIBUTOR", "", nil)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("unissued pair is not found", func() {
		resp, body := s.do(http.MethodGet, "/rewards/"+alice+"/TOP_CONTRIBUTOR", authority, nil)
		s.Equal(http.StatusNotFound, resp.StatusCode)
		s.Equal("not_found", body["error"])
	})

	s.Run("committed issuance is readable", func() {
		resp, _ := s.do(http.MethodPost, "/verify", "", s.verifyBody(alice, "0x07"))
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		resp, issued := s.do(http.MethodPost, "/rewards/issue", authority, map[string]any{
			"address": alice, "award_type": "TOP_CONTRIBUTOR",
		})
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		resp, body := s.do(http.MethodGet, "/rewards/"+alice+"/TOP_CONTRIBUTOR", authority, nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal(alice, body["address"])
		s.Equal("TOP_CONTRIBUTOR", body["award_type"])
		s.Equal(float64(1000), body["amount"])
		s.Equal(issued["asset_id"], body["asset_id"])
		s.NotEmpty(body["issued_at"])
	})

	s.Run("unknown award type is a bad request", func() {
		resp, _ := s.do(http.MethodGet, "/rewards/"+alice+"/PARTICIPATION_TROPHY", authority, nil)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

// =============================================================================
// Owner Endpoint Tests
// =============================================================================

func (s *TransportSuite) TestAmountEndpoints() {
	owner := s.token(RoleOwner, "root")

	s.Run("authority token cannot change amounts", func() {
		resp, _ := s.do(http.MethodPut, "/rewards/amounts", s.token(RoleAuthority, "bot"), map[string]any{
			"award_type": "COMMUNITY_STAR", "amount": 900,
		})
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})

	s.Run("owner updates and reads back the table", func() {
		resp, _ := s.do(http.MethodPut, "/rewards/amounts", owner, map[string]any{
			"award_type": "COMMUNITY_STAR", "amount": 900,
		})
		s.Equal(http.StatusOK, resp.StatusCode)

		resp, body := s.do(http.MethodGet, "/rewards/amounts", owner, nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		amounts := body["amounts"].(map[string]any)
		s.Equal(float64(900), amounts["COMMUNITY_STAR"])
		s.Equal(float64(750), amounts["GOVERNANCE_EXPERT"])
	})

	s.Run("zero amount rejected", func() {
		resp, _ := s.do(http.MethodPut, "/rewards/amounts", owner, map[string]any{
			"award_type": "COMMUNITY_STAR", "amount": 0,
		})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *TransportSuite) TestReauthorizeEndpoint() {
	s.Run("owner subject must match the ledger owner", func() {
		resp, _ := s.do(http.MethodPost, "/ledger/reauthorize", s.token(RoleOwner, "pretender"), map[string]any{
			"authority": "engine-v2",
		})
		s.Equal(http.StatusForbidden, resp.StatusCode)
		s.Equal("engine", s.manager.Authority())
	})

	s.Run("matching owner re-points the authority", func() {
		resp, body := s.do(http.MethodPost, "/ledger/reauthorize", s.token(RoleOwner, "root"), map[string]any{
			"authority": "engine-v2",
		})
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal("engine-v2", body["authority"])
		s.Equal("engine-v2", s.manager.Authority())
	})

	s.Run("missing authority is a bad request", func() {
		resp, _ := s.do(http.MethodPost, "/ledger/reauthorize", s.token(RoleOwner, "root"), map[string]any{})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

// =============================================================================
// Health Endpoint
// =============================================================================

func (s *TransportSuite) TestHealthz() {
	resp, _ := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}
