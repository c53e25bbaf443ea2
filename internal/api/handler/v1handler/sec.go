package v1handler

import (
	"context"
	"crypto/rsa"
	"filescanner/internal/config"
	"filescanner/pkg/logger"
	"filescanner/pkg/serrors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// CtxKey is a string-based type used for storing values in request contexts.
type CtxKey string

// SubjectKey is the context key under which the authenticated token subject is stored.
const SubjectKey CtxKey = "Subject"

// SecHandlerOptions configure bearer token verification.
type SecHandlerOptions struct {
	// PublicKey is the PEM encoded RSA key verifying RS256 tokens. Empty
	// disables authentication.
	PublicKey string
}

// NewSecHandlerOptions constructs a SecHandlerOptions value from the provided application config.
func NewSecHandlerOptions(cfg *config.Config) *SecHandlerOptions {
	return &SecHandlerOptions{
		PublicKey: cfg.JWT.PublicKey,
	}
}

// SecHandler authenticates API requests with RS256 bearer tokens.
type SecHandler struct {
	key *rsa.PublicKey
}

// NewSecHandler creates a SecHandler; the public key must parse when set.
func NewSecHandler(opts *SecHandlerOptions) (*SecHandler, error) {
	if opts == nil || opts.PublicKey == "" {
		return &SecHandler{}, nil
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(opts.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("could not parse RSA public key: %w", err)
	}

	return &SecHandler{key: key}, nil
}

// Enabled reports whether tokens are verified.
func (s *SecHandler) Enabled() bool {
	return s.key != nil
}

// HandleBearerAuth verifies token and stores its subject in the returned context.
func (s *SecHandler) HandleBearerAuth(ctx context.Context, token string) (context.Context, error) {
	if !s.Enabled() {
		return ctx, nil
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return ctx, serrors.Wrap(serrors.ErrUnauthorized, err, "invalid token")
	}
	if !parsed.Valid || claims.Subject == "" {
		return ctx, serrors.With(serrors.ErrUnauthorized, "token has no subject")
	}

	ctx = context.WithValue(ctx, SubjectKey, claims.Subject)
	ctx = logger.WithFields(ctx, zap.String("subject", claims.Subject))

	return ctx, nil
}

// GetSubjectFromContext returns the authenticated subject, or "" when
// authentication is disabled.
func GetSubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(SubjectKey).(string)

	return s
}

// Middleware rejects requests without a valid "Authorization: Bearer" header
// with 401 when authentication is enabled.
func (s *SecHandler) Middleware(next http.Handler) http.Handler {
	if !s.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSON(r.Context(), w, http.StatusUnauthorized, ErrorBody{
				Code:    serrors.ErrUnauthorized.Error(),
				Message: "missing bearer token",
			})

			return
		}

		ctx, err := s.HandleBearerAuth(r.Context(), token)
		if err != nil {
			logger.Info(r.Context(), "rejected bearer token", zap.Error(err))
			writeJSON(r.Context(), w, http.StatusUnauthorized, ErrorBody{
				Code:    serrors.ErrUnauthorized.Error(),
				Message: "invalid token",
			})

			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
