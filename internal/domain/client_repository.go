package domain

import "context"

// ClientRepository defines the interface for OAuth client data access
type ClientRepository interface {
	// Create creates a new OAuth client
	Create(ctx context.Context, client *OAuthClient) error

	// FindByID finds an OAuth client by ID
	FindByID(ctx context.Context, id string) (*OAuthClient, error)

	// Update updates an OAuth client
	Update(ctx context.Context, client *OAuthClient) error

	// Delete deletes an OAuth client
	Delete(ctx context.Context, id string) error

	// List lists all OAuth clients
	List(ctx context.Context) ([]*OAuthClient, error)
}
