package subscription

// StatusResponse is the response for GET /v1/subscription
type StatusResponse struct {
	Active      bool   `json:"active"`
	StartAt     int64  `json:"start_at,omitempty"`
	EndAt       int64  `json:"end_at,omitempty"`
	IsAvailable bool   `json:"is_available"`
	Kind        string `json:"kind,omitempty"`
}

// RenewRequest represents the request body for POST /v1/subscription/renew
type RenewRequest struct {
	// Days extends the subscription by N days from max(now, current end).
	Days int `json:"days"`
}

// RenewResponse confirms the new subscription window.
type RenewResponse struct {
	StartAt int64 `json:"start_at"`
	EndAt   int64 `json:"end_at"`
}
