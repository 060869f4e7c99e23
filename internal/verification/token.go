package verification

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "proctor"
	tokenAudience = "verification-service"
)

// ServiceClaims identify this process to the verification service. The
// subject is the opaque examinee id the request is about, never a
// credential.
type ServiceClaims struct {
	Capability string `json:"cap"`
	jwt.RegisteredClaims
}

// TokenSigner mints short-lived HS256 bearer tokens for outbound calls.
type TokenSigner struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewTokenSigner(signingKey string, ttl time.Duration) (*TokenSigner, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("signing key is required")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TokenSigner{signingKey: []byte(signingKey), ttl: ttl, now: time.Now}, nil
}

// Sign returns a token scoped to one capability call.
func (s *TokenSigner) Sign(capability Capability, subject string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ServiceClaims{
		Capability: string(capability),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			Audience:  []string{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign service token: %w", err)
	}
	return signed, nil
}

// Parse validates a token minted by a signer sharing the key. The
// verification service side uses the same logic; tests use it to check
// what was sent.
func (s *TokenSigner) Parse(tokenString string) (*ServiceClaims, error) {
	claims := &ServiceClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse service token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("parse service token: invalid")
	}
	return claims, nil
}
