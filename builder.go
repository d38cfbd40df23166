package goRedeem

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/goRedeem/credential"
	"github.com/MrEthical07/goRedeem/identity"
	"github.com/MrEthical07/goRedeem/internal"
	"github.com/MrEthical07/goRedeem/internal/audit"
	"github.com/MrEthical07/goRedeem/internal/flows"
	"github.com/MrEthical07/goRedeem/internal/rate"
	"github.com/MrEthical07/goRedeem/jwt"
	"github.com/MrEthical07/goRedeem/redemption"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine].
//
// Builder instances are intended to be configured during initialization and
// used for exactly one Build.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	logger     *slog.Logger
	auditSink  AuditSink
	httpClient *http.Client
	receipts   ReceiptSource
	redeemer   Redeemer
	clock      func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New starts from DefaultConfig; WithConfig replaces it wholesale.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing credential storage and login throttling.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithHTTPClient sets the client used for the identity and redemption
// endpoints. Defaults to http.DefaultClient.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithReceiptSource replaces the default receipt number generator.
func (b *Builder) WithReceiptSource(src ReceiptSource) *Builder {
	b.receipts = src
	return b
}

// WithRedeemer replaces the HTTP redemption client.
func (b *Builder) WithRedeemer(r Redeemer) *Builder {
	b.redeemer = r
	return b
}

// WithClock overrides time.Now for expiry checks and latency measurement.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build validates the configuration and wires every component. It performs
// no I/O; call Engine.Ping or Session().CheckStatus afterwards.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	merchant := redemption.Merchant{
		MerchantID: cfg.Merchant.MerchantID,
		LocationID: cfg.Merchant.LocationID,
		PosID:      cfg.Merchant.PosID,
	}
	if err := redemption.ValidateMerchant(merchant); err != nil {
		return nil, err
	}

	inspector, err := jwt.NewInspector(jwt.Config{
		Issuer:       cfg.Identity.TokenIssuer,
		Audience:     cfg.Identity.TokenAudience,
		Leeway:       cfg.Identity.TokenLeeway,
		VerifyMethod: jwt.SigningMethod(cfg.Identity.TokenVerifyMethod),
		VerifyKey:    []byte(cfg.Identity.TokenVerifyKey),
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	engine := &Engine{
		config:   cfg,
		logger:   logger,
		clock:    clock,
		store:    credential.NewStore(b.redis, cfg.Credentials.RedisPrefix),
		merchant: merchant,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	// -------- SESSION --------
	limiter := rate.New(b.redis, rate.Config{
		Prefix:      cfg.Credentials.RedisPrefix,
		MaxAttempts: cfg.Security.MaxLoginAttempts,
		Cooldown:    cfg.Security.LoginCooldownDuration,
	})
	idClient := identity.NewClient(cfg.Identity.AuthURL, b.httpClient)

	engine.session = newAuthSession(engine.flowDeps(flows.LoginDeps{
		SignIn: idClient.SignIn,
		TokenExpiry: func(idToken string) (time.Time, bool) {
			claims, err := inspector.Inspect(idToken)
			if err != nil {
				logger.Warn("goRedeem: identity token not inspectable", "error", err)
				return time.Time{}, false
			}
			return inspector.Expiry(claims)
		},
		CheckLoginRate:     limiter.CheckLogin,
		IncrementLoginRate: limiter.IncrementLogin,
		ResetLoginRate:     limiter.ResetLogin,
	}), logger)

	// -------- REDEMPTION --------
	engine.redeemer = b.redeemer
	if engine.redeemer == nil {
		engine.redeemer = redemption.NewClient(cfg.API.BaseURL,
			redemption.WithHTTPClient(b.httpClient),
			redemption.WithAuthorization(engine.session.headerSource),
		)
	}
	engine.receipts = b.receipts
	if engine.receipts == nil {
		engine.receipts = internal.NewReceiptGenerator()
	}

	engine.gate = newSessionGate(engine.session, engine.NewWorkflow)

	b.built = true

	return engine, nil
}
