package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/codingswamp/codingswamp-backend/internal/domain/member"
	"github.com/codingswamp/codingswamp-backend/internal/platform/apierr"
	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
)

const tokenSubject = "access_token"

// MemberClaims is what a resolved token proves about the caller.
type MemberClaims struct {
	MemberID uuid.UUID
	Role     member.Role
}

type TokenService interface {
	Issue(memberID uuid.UUID, role member.Role) (string, error)
	Validate(authorizationHeader string) bool
	ResolvePayload(authorizationHeader string) (*MemberClaims, error)
	GetValidity() time.Duration
}

type tokenService struct {
	log       *logger.Logger
	secretKey []byte
	validity  time.Duration
	now       func() time.Time
}

func NewTokenService(log *logger.Logger, secretKey string, validity time.Duration) TokenService {
	return &tokenService{
		log:       log.With("service", "TokenService"),
		secretKey: []byte(secretKey),
		validity:  validity,
		now:       time.Now,
	}
}

type accessClaims struct {
	MemberID string `json:"member_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (ts *tokenService) Issue(memberID uuid.UUID, role member.Role) (string, error) {
	now := ts.now()
	claims := accessClaims{
		MemberID: memberID.String(),
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tokenSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.validity)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.secretKey)
}

// Validate fails closed: any parse, signature, subject or expiry problem
// yields false and never an error.
func (ts *tokenService) Validate(authorizationHeader string) bool {
	_, err := ts.resolve(authorizationHeader)
	return err == nil
}

// ResolvePayload turns an Authorization header into the caller's identity.
// Header missing, malformed header, bad signature and unparseable claims are
// told apart only in logs; callers see one authentication failure.
func (ts *tokenService) ResolvePayload(authorizationHeader string) (*MemberClaims, error) {
	claims, err := ts.resolve(authorizationHeader)
	if err != nil {
		ts.log.Debug("Token resolution failed", "error", err)
		return nil, apierr.Unauthorized("invalid or missing access token")
	}
	return claims, nil
}

func (ts *tokenService) resolve(authorizationHeader string) (*MemberClaims, error) {
	raw, err := extractToken(authorizationHeader)
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.ParseWithClaims(raw, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) { return ts.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject != tokenSubject {
		return nil, fmt.Errorf("unexpected token subject %q", claims.Subject)
	}
	memberID, err := uuid.Parse(claims.MemberID)
	if err != nil {
		return nil, fmt.Errorf("invalid member id claim: %w", err)
	}
	if claims.Role != string(member.RoleUser) && claims.Role != string(member.RoleAdmin) {
		return nil, fmt.Errorf("invalid role claim %q", claims.Role)
	}
	return &MemberClaims{MemberID: memberID, Role: member.Role(claims.Role)}, nil
}

func (ts *tokenService) GetValidity() time.Duration {
	return ts.validity
}

// extractToken requires exactly "<scheme> <token>" separated by a single
// space, with a case-insensitive Bearer scheme.
func extractToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", fmt.Errorf("authorization header missing")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") ||
		token == "" || strings.ContainsAny(token, " \t") {
		return "", fmt.Errorf("malformed authorization header")
	}
	return token, nil
}
