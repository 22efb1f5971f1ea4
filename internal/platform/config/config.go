package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"vibegate/internal/policy"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	LogLevel      string

	// Optional backing services. Empty means the in-memory implementation.
	RedisURL    string
	PostgresURL string

	// Kafka audit sink. Empty brokers means the in-memory audit store.
	KafkaBrokers    []string
	KafkaAuditTopic string

	// Groth16 verifying key for the proof hub. Empty disables the hub and
	// requires an injected one (tests).
	VerifyingKeyPath string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("VIBEGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			brokers = append(brokers, strings.TrimSpace(b))
		}
	}

	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "vibegate.audit"
	}

	return Server{
		Addr:             addr,
		JWTSigningKey:    jwtSigningKey,
		LogLevel:         os.Getenv("LOG_LEVEL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		PostgresURL:      os.Getenv("POSTGRES_URL"),
		KafkaBrokers:     brokers,
		KafkaAuditTopic:  topic,
		VerifyingKeyPath: os.Getenv("GROTH16_VK_PATH"),
	}
}

// PolicyFromEnv builds the immutable verification policy. Errors here are
// fatal to deployment: a half-configured policy must never serve proofs.
func PolicyFromEnv() (policy.Config, error) {
	endpoint := os.Getenv("SCOPE_ENDPOINT")
	if endpoint == "" {
		endpoint = "https://vibegate.local/verify"
	}
	purpose := os.Getenv("SCOPE_PURPOSE")
	if purpose == "" {
		purpose = "vibe-humanity"
	}

	attestationID := uint64(1)
	if raw := os.Getenv("ATTESTATION_ID"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return policy.Config{}, fmt.Errorf("parse ATTESTATION_ID: %w", err)
		}
		attestationID = parsed
	}

	minimumAge := 0
	if raw := os.Getenv("MINIMUM_AGE"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return policy.Config{}, fmt.Errorf("parse MINIMUM_AGE: %q", raw)
		}
		minimumAge = parsed
	}

	countries, err := policy.ParseCountrySet(os.Getenv("FORBIDDEN_COUNTRIES"))
	if err != nil {
		return policy.Config{}, fmt.Errorf("parse FORBIDDEN_COUNTRIES: %w", err)
	}

	var flags [policy.ScreeningLists]bool
	if raw := os.Getenv("SCREENING_FLAGS"); raw != "" {
		fields := strings.Split(raw, ",")
		if len(fields) > policy.ScreeningLists {
			return policy.Config{}, fmt.Errorf("SCREENING_FLAGS accepts at most %d entries", policy.ScreeningLists)
		}
		for i, field := range fields {
			flags[i] = strings.TrimSpace(field) == "true"
		}
	}

	return policy.Config{
		ScopeHash:          policy.ScopeHashFor(endpoint, purpose),
		AttestationID:      attestationID,
		MinimumAge:         minimumAge,
		ForbiddenCountries: countries,
		ScreeningFlags:     flags,
	}, nil
}
