package model

import "github.com/golang-jwt/jwt/v5"

// RespondentClaims are JWT claims identifying a test taker
type RespondentClaims struct {
	RespondentID string `json:"respondentId"`
	jwt.RegisteredClaims
}

// RespondentTokenRequest is the body of POST /v1/auth/respondent.
// An empty RespondentID asks the server to mint a new identity.
type RespondentTokenRequest struct {
	RespondentID string `json:"respondentId,omitempty"`
}

// RespondentTokenResponse is returned after a token is issued
type RespondentTokenResponse struct {
	Token        string `json:"token"`
	RespondentID string `json:"respondentId"`
}
