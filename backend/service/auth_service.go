package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"filebox/backend/common"
	ferrors "filebox/backend/common/errors"
	"filebox/backend/library/revoke"
	"filebox/backend/model"
)

const tokenIssuer = "filebox"

// JWTClaims are the claims carried by a login token. Tokens do not expire;
// deregistration revokes them.
type JWTClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret  []byte
	revoked revoke.Store
}

func NewTokenService(cfg common.Config, revoked revoke.Store) *TokenService {
	return &TokenService{secret: []byte(cfg.JWTSecret), revoked: revoked}
}

// Issue signs a token for user.
func (s *TokenService) Issue(user *model.User) (string, error) {
	claims := JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   tokenIssuer,
			Subject:  user.ID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken checks the signature and issuer of a raw token.
func (s *TokenService) ParseToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Verify resolves an Authorization header value to the caller's claims.
func (s *TokenService) Verify(ctx context.Context, authHeader string) (*JWTClaims, error) {
	if authHeader == "" {
		return nil, ferrors.Auth(ferrors.ErrMissingToken, "Not authenticated.")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return nil, ferrors.Auth(ferrors.ErrMalformedToken, "Authorization header format must be Bearer {token}")
	}

	claims, err := s.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.KindAuth, ferrors.ErrInvalidToken, "Invalid token")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.UserID)
	if err != nil {
		return nil, ferrors.Internal(ferrors.ErrInternalServer, "Could not verify token", err)
	}
	if revoked {
		return nil, errTokenInvalidated()
	}
	return claims, nil
}

// Revoke invalidates every token issued to userID.
func (s *TokenService) Revoke(ctx context.Context, userID string) error {
	return s.revoked.Revoke(ctx, userID)
}

// errTokenInvalidated is returned for tokens of deleted accounts, whether the
// revocation list or a missing user row caught them.
func errTokenInvalidated() error {
	return ferrors.Auth(ferrors.ErrRevokedToken, "Token has been invalidated")
}

func callerID(ctx context.Context) (string, error) {
	id, ok := common.UserIDFrom(ctx)
	if !ok {
		return "", ferrors.Auth(ferrors.ErrMissingToken, "Not authenticated.")
	}
	return id, nil
}
