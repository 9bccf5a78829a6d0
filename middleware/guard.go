package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/padlock"
	"github.com/MrEthical07/padlock/metadata"
	"github.com/MrEthical07/padlock/revocation"
	"go.uber.org/zap"
)

// Mode selects which checks a guard runs after the signature.
type Mode int

const (
	// ModeWindow checks the validity window, and the denylist when a checker
	// is configured. A denylist error rejects the request.
	ModeWindow Mode = iota
	// ModeIntegrity checks the signature only.
	ModeIntegrity
	// ModeStrict checks the validity window and requires a denylist answer.
	ModeStrict
)

var errNoChecker = errors.New("middleware: strict mode requires a revocation checker")

type claimContextKey struct{}

// ClaimFromContext returns the claim admitted by a guard for metadata type M.
func ClaimFromContext[M metadata.Metadata](ctx context.Context) (padlock.Claim[M], bool) {
	c, ok := ctx.Value(claimContextKey{}).(padlock.Claim[M])
	return c, ok
}

// Option configures a guard.
type Option func(*options)

type options struct {
	checker revocation.Checker
	now     func() time.Time
	logger  *zap.Logger
}

// WithRevocation consults checker for every admitted claim.
func WithRevocation(checker revocation.Checker) Option {
	return func(o *options) { o.checker = checker }
}

// WithClock overrides time.Now for the validity window check.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger logs rejections at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Guard returns middleware admitting requests whose bearer token is a claim
// signed for p. Rejected requests get 401; a denylist outage in strict mode
// gets 503.
func Guard[M metadata.Metadata](p *padlock.Padlock[M], mode Mode, opts ...Option) func(http.Handler) http.Handler {
	o := options{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claim, status, err := admit(r.Context(), p, mode, &o, token)
			if err != nil {
				o.logger.Debug("padlock: request rejected",
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Error(err),
				)
				http.Error(w, http.StatusText(status), status)
				return
			}

			ctx := context.WithValue(r.Context(), claimContextKey{}, claim)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func admit[M metadata.Metadata](ctx context.Context, p *padlock.Padlock[M], mode Mode, o *options, token string) (padlock.Claim[M], int, error) {
	claim, err := p.Decode(token)
	if err != nil {
		return claim, http.StatusUnauthorized, err
	}

	ok, err := p.Verify(claim)
	if err != nil {
		return claim, http.StatusServiceUnavailable, err
	}
	if !ok {
		return claim, http.StatusUnauthorized, padlock.ErrClaimRejected
	}

	if mode == ModeIntegrity {
		return claim, http.StatusOK, nil
	}

	m := claim.Metadata()
	if !m.Valid(o.now()) {
		return claim, http.StatusUnauthorized, padlock.ErrClaimNotValid
	}

	if o.checker == nil {
		if mode == ModeStrict {
			return claim, http.StatusServiceUnavailable, errNoChecker
		}
		return claim, http.StatusOK, nil
	}

	revoked, err := o.checker.IsRevoked(ctx, m.ClaimID())
	if err != nil {
		if mode == ModeStrict {
			return claim, http.StatusServiceUnavailable, err
		}
		return claim, http.StatusUnauthorized, err
	}
	if revoked {
		return claim, http.StatusUnauthorized, padlock.ErrClaimRejected
	}

	return claim, http.StatusOK, nil
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
