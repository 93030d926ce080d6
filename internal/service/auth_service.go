package service

import (
	"errors"
	"time"

	"adaptivequiz/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService issues and validates respondent tokens
type AuthService struct {
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		tokenTTL:  tokenTTL,
	}
}

// IssueRespondentToken signs a token for respondentID, minting a new id when empty
func (s *AuthService) IssueRespondentToken(respondentID string) (*model.RespondentTokenResponse, error) {
	if respondentID == "" {
		respondentID = "resp_" + uuid.New().String()
	}

	now := time.Now()
	claims := &model.RespondentClaims{
		RespondentID: respondentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  respondentID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.RespondentTokenResponse{
		Token:        tokenString,
		RespondentID: respondentID,
	}, nil
}

// ValidateRespondentToken validates a respondent JWT and returns claims
func (s *AuthService) ValidateRespondentToken(tokenString string) (*model.RespondentClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.RespondentClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.RespondentClaims)
	if !ok || !token.Valid || claims.RespondentID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
