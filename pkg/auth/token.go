package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/ticketing-backend/pkg/config"
)

var (
	// ErrTokenExpired is returned for well-formed tokens past their exp claim.
	ErrTokenExpired = errors.New("access token expired")
	// ErrTokenInvalid covers every other verification failure.
	ErrTokenInvalid = errors.New("access token invalid")
)

const defaultLeeway = 30 * time.Second

var signingMethod = jwt.SigningMethodHS256

// Verifier checks HS256 access tokens issued by the identity service. Mint
// exists for tooling and tests; production tokens are never minted here.
type Verifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	parser *jwt.Parser
}

func NewVerifier(cfg config.JWTConfig) *Verifier {
	leeway := time.Duration(cfg.LeewaySeconds) * time.Second
	if cfg.LeewaySeconds <= 0 {
		leeway = defaultLeeway
	}
	return &Verifier{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    time.Duration(cfg.ExpirationMinutes) * time.Minute,
		leeway: leeway,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(leeway),
		),
	}
}

// Verify parses raw and returns its claims. Failures wrap ErrTokenExpired or
// ErrTokenInvalid.
func (v *Verifier) Verify(raw string) (*AccessTokenClaims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: verifier has no secret", ErrTokenInvalid)
	}
	claims := &AccessTokenClaims{}
	_, err := v.parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", ErrTokenInvalid)
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("%w: role %q", ErrTokenInvalid, claims.Role)
	}
	return claims, nil
}

// Mint signs a token for payload issued at now.
func (v *Verifier) Mint(now time.Time, payload AccessTokenPayload) (string, error) {
	switch {
	case len(v.secret) == 0:
		return "", errors.New("jwt secret is required")
	case v.issuer == "":
		return "", errors.New("jwt issuer is required")
	case v.ttl <= 0:
		return "", errors.New("jwt expiration must be positive")
	case payload.UserID == uuid.Nil:
		return "", errors.New("user id is required")
	case !payload.Role.IsValid():
		return "", fmt.Errorf("invalid role %q", payload.Role)
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Role:   payload.Role,
		Email:  payload.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			ID:        jti,
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}
