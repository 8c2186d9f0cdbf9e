package auth

// MeResponse is the response for GET /v1/me.
// Returns selected claims from the access credential.
type MeResponse struct {
	Sub                   string `json:"sub"`
	Role                  string `json:"role"`
	Exp                   int64  `json:"exp"`
	SubscriptionExpiresAt *int64 `json:"subscription_expires_at,omitempty"`
}
