package auth

// LogoutRequest represents the request body for POST /v1/auth/logout
type LogoutRequest struct {
	// RefreshToken is the credential to revoke.
	RefreshToken string `json:"refresh_token"`
}

// LogoutAllResponse reports how many sessions were revoked.
type LogoutAllResponse struct {
	Revoked int `json:"revoked"`
}
