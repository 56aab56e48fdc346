package domain

import "time"

// ClientType distinguishes clients that can keep a secret from those that cannot
type ClientType string

const (
	// ClientTypePublic is a client without a secret (SPA, mobile app)
	ClientTypePublic ClientType = "PUBLIC"
	// ClientTypeConfidential is a server-side client holding a secret
	ClientTypeConfidential ClientType = "CONFIDENTIAL"
)

// ClientStatus represents the lifecycle status of an OAuth client
type ClientStatus string

const (
	ClientStatusActive    ClientStatus = "ACTIVE"
	ClientStatusInactive  ClientStatus = "INACTIVE"
	ClientStatusSuspended ClientStatus = "SUSPENDED"
)

// OAuthClient represents a registered OAuth2 client application
type OAuthClient struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	SecretHash  string       `json:"-"`
	RedirectURI string       `json:"redirect_uri"`
	Scopes      []string     `json:"scopes"`
	Type        ClientType   `json:"type"`
	Status      ClientStatus `json:"status"`
	UserID      string       `json:"user_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsActive reports whether the client may take part in new grants
func (c *OAuthClient) IsActive() bool {
	return c.Status == ClientStatusActive
}
