package authtoken

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type StaffClaims struct {
	jwt.RegisteredClaims

	// Name is shown as the sender on chat messages.
	Name string `json:"name,omitempty"`
}

type Staff struct {
	ID        string
	Name      string
	ExpiresAt time.Time
}

// Issue signs an HS256 staff token valid for ttl from now.
func Issue(secret, issuer, staffID, name string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("missing signing secret")
	}
	if strings.TrimSpace(staffID) == "" {
		return "", fmt.Errorf("missing staff id")
	}
	claims := StaffClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staffID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verify checks signature, expiry and issuer, and returns the staff member the token names.
func Verify(tokenString, secret, issuer string, now time.Time) (*Staff, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, fmt.Errorf("missing signing secret")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	claims := &StaffClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("missing subject in token")
	}

	name := claims.Name
	if name == "" {
		name = claims.Subject
	}
	return &Staff{
		ID:        claims.Subject,
		Name:      name,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
