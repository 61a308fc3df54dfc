package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/jobtrail/internal/shared"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	jwksRefresh = 5 * time.Minute
	clockSkew   = 30 * time.Second
)

type ownerKey struct{}

// WithOwner returns a copy of ctx carrying the authenticated owner id.
func WithOwner(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, userID)
}

// OwnerFrom returns the owner id stored by the auth middleware.
func OwnerFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerKey{}).(string)
	return id, ok && id != ""
}

// Authenticator verifies session JWTs. The token subject is the owner id.
type Authenticator struct {
	options []jwt.ParseOption
}

// NewAuthenticator creates an Authenticator from the auth settings.
//
// A shared secret verifies HS256 tokens. Otherwise the JWKS URL is registered with a
// refreshing [jwk.Cache] bound to ctx and fetched once before returning.
func NewAuthenticator(ctx context.Context, cfg shared.AuthConfig) (*Authenticator, error) {
	var opts []jwt.ParseOption

	switch {
	case cfg.JWTSecret != "":
		key, err := jwk.FromRaw([]byte(cfg.JWTSecret))
		if err != nil {
			return nil, fmt.Errorf("failed to build signing key: %w", err)
		}
		opts = append(opts, jwt.WithKey(jwa.HS256, key))
	case cfg.JWKSURL != "":
		cache := jwk.NewCache(ctx)
		if err := cache.Register(cfg.JWKSURL, jwk.WithMinRefreshInterval(jwksRefresh)); err != nil {
			return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
		}
		if _, err := cache.Refresh(ctx, cfg.JWKSURL); err != nil {
			return nil, fmt.Errorf("failed initial JWKS fetch: %w", err)
		}
		set := jwk.NewCachedSet(cache, cfg.JWKSURL)
		opts = append(opts, jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true)))
	default:
		return nil, fmt.Errorf("%w: auth.jwt_secret or auth.jwks_url is required", shared.ErrMissingConfig)
	}

	opts = append(opts, jwt.WithValidate(true), jwt.WithAcceptableSkew(clockSkew))
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &Authenticator{options: opts}, nil
}

// Verify validates the bearer token of r and returns its subject.
func (a *Authenticator) Verify(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", shared.ErrNotAuthenticated)
	}

	token, err := jwt.ParseRequest(r, a.options...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	if token.Subject() == "" {
		return "", fmt.Errorf("%w: token missing subject", shared.ErrInvalidToken)
	}
	return token.Subject(), nil
}

// Middleware rejects unauthenticated requests with 401 and stores the owner id in the request context.
func (a *Authenticator) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := a.Verify(r)
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

// IssueToken signs an HS256 session token for subject with the configured secret.
func IssueToken(cfg shared.AuthConfig, subject string, ttl time.Duration) (string, error) {
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("%w: auth.jwt_secret is required to issue tokens", shared.ErrMissingConfig)
	}
	if subject == "" {
		return "", fmt.Errorf("%w: subject is required", shared.ErrMissingArgument)
	}

	now := time.Now()
	b := jwt.NewBuilder().
		Subject(subject).
		IssuedAt(now).
		Expiration(now.Add(ttl))
	if cfg.Issuer != "" {
		b = b.Issuer(cfg.Issuer)
	}
	if cfg.Audience != "" {
		b = b.Audience([]string{cfg.Audience})
	}

	token, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	key, err := jwk.FromRaw([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to build signing key: %w", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, key))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}
