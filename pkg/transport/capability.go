package transport

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// routeClaims embeds a RouteDescriptor in a signed JWT so a remote node
// can verify which node minted a handle before routing a Send into it
// (design note, §6: handles crossing address spaces carry "enough
// addressing information to reach the target mailbox from any process
// in the fleet" — a capability token is the trust boundary on top of
// that addressing).
type routeClaims struct {
	jwt.RegisteredClaims
	Route RouteDescriptor `json:"route"`
}

// CapabilitySigner signs and verifies RouteDescriptor capability tokens
// with an HMAC secret. Verification uses the same secret as signing, so
// only a signer holding the issuing node's secret can verify its tokens.
type CapabilitySigner struct {
	nodeID string
	secret []byte
	ttl    time.Duration
}

// NewCapabilitySigner creates a signer for nodeID using secret as the
// HMAC signing key.
func NewCapabilitySigner(nodeID string, secret []byte, ttl time.Duration) *CapabilitySigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CapabilitySigner{nodeID: nodeID, secret: secret, ttl: ttl}
}

// Sign issues a capability token for route, scoped to this signer's
// node and TTL.
func (s *CapabilitySigner) Sign(route RouteDescriptor) (string, error) {
	now := time.Now()
	claims := routeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.nodeID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Route: route,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks tokenStr's signature and expiry and returns the embedded
// RouteDescriptor, along with the issuing node's ID.
func (s *CapabilitySigner) Verify(tokenStr string) (RouteDescriptor, string, error) {
	var claims routeClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("transport: unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return RouteDescriptor{}, "", fmt.Errorf("transport: invalid capability token: %w", err)
	}
	if !token.Valid {
		return RouteDescriptor{}, "", fmt.Errorf("transport: capability token rejected")
	}
	return claims.Route, claims.Issuer, nil
}
