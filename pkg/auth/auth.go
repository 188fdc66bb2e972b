// Package auth holds the credentials and the authenticated HTTP client
// shared by every entity of a project.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/psantana5/up42-go/pkg/api"
	"github.com/psantana5/up42-go/pkg/ratelimit"
	clienttls "github.com/psantana5/up42-go/pkg/tls"
	"github.com/psantana5/up42-go/pkg/tracing"
)

// TokenPath is the client credentials token endpoint below the API root
const TokenPath = "/oauth/token"

// Auth is the authenticated session for one project
type Auth struct {
	ProjectID string

	// GetInfo makes entity constructors fetch info eagerly. Changing it only
	// affects entities constructed afterwards.
	GetInfo bool

	env       string
	endpoint  string
	client    *http.Client
	requester *api.Requester
	logger    hclog.Logger
}

// New validates cfg, builds the HTTP client and, unless authentication is
// disabled or a static token is configured, fetches the first access token.
func New(ctx context.Context, cfg Config) (*Auth, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	a := &Auth{
		ProjectID: cfg.ProjectID,
		GetInfo:   cfg.GetInfo,
		env:       cfg.Env,
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		logger:    logger,
	}
	if a.env == "" {
		a.env = DefaultEnv
	}

	transport, err := buildTransport(cfg)
	if err != nil {
		return nil, err
	}
	base := &http.Client{Transport: transport, Timeout: cfg.Timeout}

	switch {
	case !cfg.Authenticate:
		logger.Debug("authentication disabled")
		a.client = base
	case cfg.AccessToken != "":
		a.client = oauthClient(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.AccessToken,
			TokenType:   "Bearer",
		}), transport, cfg.Timeout)
	default:
		cc := &clientcredentials.Config{
			ClientID:     cfg.ProjectID,
			ClientSecret: cfg.ProjectAPIKey,
			TokenURL:     a.Endpoint() + TokenPath,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		// The token source keeps this context for refreshes, so it must
		// outlive the caller's.
		tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, base)
		source := cc.TokenSource(tokenCtx)

		token, err := source.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch access token: %w", err)
		}
		logger.Info("authentication successful", "project_id", cfg.ProjectID, "expiry", token.Expiry)
		a.client = oauthClient(source, transport, cfg.Timeout)
	}

	a.requester = api.NewRequester(a.client, logger)
	return a, nil
}

func buildTransport(cfg Config) (http.RoundTripper, error) {
	transport := cfg.Transport
	if transport == nil {
		var err error
		transport, err = clienttls.Transport(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}
	if cfg.RateLimit > 0 {
		transport = ratelimit.NewLimiter(cfg.RateLimit, cfg.RateBurst).Transport(transport)
	}
	if cfg.Metrics != nil {
		transport = cfg.Metrics.Transport(transport)
	}
	if cfg.Tracer != nil {
		transport = tracing.Transport(cfg.Tracer, transport)
	}
	return transport, nil
}

func oauthClient(source oauth2.TokenSource, base http.RoundTripper, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{Source: source, Base: base},
		Timeout:   timeout,
	}
}

// Endpoint returns the API root all entity URLs are built on
func (a *Auth) Endpoint() string {
	if a.endpoint != "" {
		return a.endpoint
	}
	return "https://api.up42." + a.env
}

// Env returns the configured environment
func (a *Auth) Env() string {
	return a.env
}

// Requester returns the envelope aware requester
func (a *Auth) Requester() *api.Requester {
	return a.requester
}

// HTTPClient returns the authenticated client
func (a *Auth) HTTPClient() *http.Client {
	return a.client
}

// Logger returns the session logger
func (a *Auth) Logger() hclog.Logger {
	return a.logger
}

func (a *Auth) String() string {
	return fmt.Sprintf("Auth(project_id=%s, env=%s)", a.ProjectID, a.env)
}
