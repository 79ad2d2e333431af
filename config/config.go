package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	productionBaseURL = "https://connect.squareup.com"
	sandboxBaseURL    = "https://connect.squareupsandbox.com"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"3000"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Square upstream. Credentials are read once at startup; missing
	// credentials are reported per request as MISSING_CREDENTIALS rather
	// than failing boot, so health endpoints stay reachable.
	SquareAccessToken   string        `env:"SQUARE_ACCESS_TOKEN"`
	SquareApplicationID string        `env:"SQUARE_APPLICATION_ID"`
	SquareLocationID    string        `env:"SQUARE_LOCATION_ID"`
	SquareEnvironment   string        `env:"SQUARE_ENVIRONMENT" envDefault:"production"`
	SquareBaseURL       string        `env:"SQUARE_API_BASE_URL"`
	SquareAPIVersion    string        `env:"SQUARE_API_VERSION" envDefault:"2024-10-16"`
	SquareClientTimeout time.Duration `env:"HTTP_SQUARE_CLIENT_TIMEOUT" envDefault:"30s"`

	RetryAttempts  int           `env:"SQUARE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay time.Duration `env:"SQUARE_RETRY_BASE_DELAY" envDefault:"100ms"`
	RetryMaxDelay  time.Duration `env:"SQUARE_RETRY_MAX_DELAY" envDefault:"5s"`

	// Amount bounds in major units. The upper bound is a business limit
	// per transaction, not Square's technical maximum.
	MinAmount float64 `env:"MIN_AMOUNT" envDefault:"0.01"`
	MaxAmount float64 `env:"MAX_AMOUNT" envDefault:"10000"`

	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"10240"`

	// Idempotency guard. Strict mode enforces the 20..128 char bounds on
	// caller-supplied keys.
	IdempotencyTTL    time.Duration `env:"IDEMPOTENCY_KEY_TTL" envDefault:"1h"`
	IdempotencyStrict bool          `env:"IDEMPOTENCY_STRICT" envDefault:"false"`

	// Rate and velocity limits, enforced per client IP when a store is
	// available. Velocity limits are in major currency units.
	RequestsPerMinute int     `env:"MAX_REQUESTS_PER_MINUTE" envDefault:"10"`
	HourlyLimit       float64 `env:"HOURLY_LIMIT_PER_IP" envDefault:"50000"`
	DailyLimit        float64 `env:"DAILY_LIMIT_PER_IP" envDefault:"100000"`

	// StorePath points at the embedded BoltDB file backing idempotency,
	// rate limiting and payment metadata. Empty selects the in-memory store.
	StorePath   string        `env:"STORE_PATH"`
	MetadataTTL time.Duration `env:"PAYMENT_METADATA_TTL" envDefault:"720h"`

	// AllowedOrigins restricts CORS. Empty means allow any origin, which
	// is only appropriate for development.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Hardened switches external error messages to generic per-status
	// strings; full detail is still logged server-side.
	Hardened bool `env:"HARDENED_ERRORS" envDefault:"false"`
}

func New() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	if c.SquareBaseURL == "" {
		if c.SquareEnvironment == "sandbox" {
			c.SquareBaseURL = sandboxBaseURL
		} else {
			c.SquareBaseURL = productionBaseURL
		}
	}

	return c, nil
}

// CredentialsConfigured reports whether the upstream credentials required
// to process payments are present.
func (c Config) CredentialsConfigured() bool {
	return c.SquareAccessToken != "" && c.SquareLocationID != ""
}
