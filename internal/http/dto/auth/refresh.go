package auth

// RefreshRequest represents the request body for POST /v1/auth/refresh
type RefreshRequest struct {
	// RefreshToken is the credential being rotated. Single use: the backing
	// record is revoked before the new pair is issued.
	RefreshToken string `json:"refresh_token"`
}
