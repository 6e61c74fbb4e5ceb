package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rhuss/tokengate/pkg/observability"
)

// DefaultLoginPath is the path handled by the login filter.
const DefaultLoginPath = "/api/auth/login"

// DefaultMaxBodySize bounds the login request body.
const DefaultMaxBodySize int64 = 16 << 10

// Stage is one step of the pipeline. It returns the request to hand to the
// next stage and whether the chain continues. A stage that returns false has
// already written the response.
type Stage interface {
	Process(w http.ResponseWriter, r *http.Request) (*http.Request, bool)
}

// GateConfig holds the collaborators of a Gate.
type GateConfig struct {
	LoginPath   string
	Credentials CredentialAuthenticator
	Tokens      TokenAuthenticator
	Success     SuccessHandler
	Failure     FailureHandler

	// Access decides authorization after a token check. Nil requires
	// RoleUser everywhere.
	Access *AccessDecision

	// MaxBodySize bounds the login body (default: 16 KiB).
	MaxBodySize int64
}

// Gate is the entry point of the pipeline. Requests for the login path run
// the login stages, every other request runs the token stages.
type Gate struct {
	loginPath   string
	loginStages []Stage
	tokenStages []Stage
}

// NewGate builds a gate from cfg.
func NewGate(cfg GateConfig) (*Gate, error) {
	var errs []error
	if cfg.Credentials == nil {
		errs = append(errs, errors.New("credential authenticator is required"))
	}
	if cfg.Tokens == nil {
		errs = append(errs, errors.New("token authenticator is required"))
	}
	if cfg.Success == nil {
		errs = append(errs, errors.New("success handler is required"))
	}
	if cfg.Failure == nil {
		errs = append(errs, errors.New("failure handler is required"))
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if !strings.HasPrefix(cfg.LoginPath, "/") {
		errs = append(errs, errors.New("login path must start with /"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	access := cfg.Access
	if access == nil {
		var err error
		access, err = NewAccessDecision(RoleUser, nil, cfg.Failure)
		if err != nil {
			return nil, err
		}
	}

	return &Gate{
		loginPath: cfg.LoginPath,
		loginStages: []Stage{
			NewLoginFilter(cfg.Credentials, cfg.Success, cfg.Failure, cfg.MaxBodySize),
		},
		tokenStages: []Stage{
			NewTokenFilter(cfg.Tokens, cfg.Failure),
			access,
		},
	}, nil
}

// LoginPath returns the path handled by the login stages.
func (g *Gate) LoginPath() string {
	return g.loginPath
}

// Stages returns the stages that run for path.
func (g *Gate) Stages(path string) []Stage {
	if path == g.loginPath {
		return g.loginStages
	}
	return g.tokenStages
}

// Middleware runs the stages for each request and calls next only when all
// of them let the request through.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, stage := range g.Stages(r.URL.Path) {
			var ok bool
			r, ok = stage.Process(w, r)
			if !ok {
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// recordOutcome counts an outcome under the stage label.
func recordOutcome(stage string, out Outcome) {
	reason := "Success"
	if !out.OK() {
		reason = string(out.Reason)
	}
	observability.AuthOutcomesTotal.WithLabelValues(stage, reason).Inc()
}
