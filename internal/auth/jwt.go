package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleOperator = "operator"

var ErrForbidden = errors.New("operator role required")

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 operator tokens.
type Service struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewService(secret, issuer string) *Service {
	return &Service{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (s *Service) IssueOperatorToken(subject string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Role: RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign operator token: %w", err)
	}
	return token, nil
}

// ValidateOperator parses the token and requires the operator role.
func (s *Service) ValidateOperator(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.Role != RoleOperator {
		return nil, ErrForbidden
	}
	return claims, nil
}
