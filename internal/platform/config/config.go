package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration for the issuance engine.
type Server struct {
	Addr          string
	Environment   string
	JWTSigningKey string

	// AdminAddress bootstraps the registry admin on first start. Later
	// admin changes go through the transfer-admin operation.
	AdminAddress string

	// Ledger node API.
	LedgerURL   string
	LedgerToken string

	// Content-addressed store gateway.
	GatewayURL string

	// Optional remote authenticity oracle. Empty means the built-in
	// checklist checker is used.
	OracleURL string

	// FullAudit runs all three verification layers even after a failure,
	// trading extra I/O for a complete diagnostic trail.
	FullAudit bool

	// AuthenticityThreshold is the minimum confidence to pass layer 2.
	AuthenticityThreshold float64

	// VerifyTimeout bounds each outbound verification call.
	VerifyTimeout time.Duration
}

// Defaults for network-facing knobs. The verify timeout and retry budget
// mirror the engine's published retry policy.
var (
	DefaultVerifyTimeout = 10 * time.Second
	DefaultThreshold     = 0.80
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CERTMINT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	env := os.Getenv("CERTMINT_ENV")
	if env == "" {
		env = "dev"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	ledgerURL := os.Getenv("LEDGER_URL")
	if ledgerURL == "" {
		ledgerURL = "https://testnet-api.algonode.cloud"
	}

	gatewayURL := os.Getenv("CONTENT_GATEWAY_URL")
	if gatewayURL == "" {
		gatewayURL = "https://gateway.pinata.cloud"
	}

	threshold := DefaultThreshold
	if s := os.Getenv("AUTHENTICITY_THRESHOLD"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v > 0 && v <= 1 {
			threshold = v
		}
	}

	verifyTimeout := DefaultVerifyTimeout
	if s := os.Getenv("VERIFY_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			verifyTimeout = d
		}
	}

	return Server{
		Addr:                  addr,
		Environment:           env,
		JWTSigningKey:         jwtSigningKey,
		AdminAddress:          os.Getenv("ADMIN_ADDRESS"),
		LedgerURL:             ledgerURL,
		LedgerToken:           os.Getenv("LEDGER_TOKEN"),
		GatewayURL:            gatewayURL,
		OracleURL:             os.Getenv("ORACLE_URL"),
		FullAudit:             os.Getenv("FULL_AUDIT") == "true",
		AuthenticityThreshold: threshold,
		VerifyTimeout:         verifyTimeout,
	}
}
