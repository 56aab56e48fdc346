package application

import "github.com/ipede/oauth-grant-service/internal/domain"

// ScopeNegotiator intersects requested scopes with a client's registered
// scope set
type ScopeNegotiator struct{}

// NewScopeNegotiator creates a new ScopeNegotiator
func NewScopeNegotiator() *ScopeNegotiator {
	return &ScopeNegotiator{}
}

// Negotiate returns the granted scope set for a request. An empty request
// defaults to the client's full registered set. The result is duplicate-free
// and never exceeds the client's scopes.
func (n *ScopeNegotiator) Negotiate(client *domain.OAuthClient, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return dedupe(client.Scopes), nil
	}

	allowed := make(map[string]bool, len(client.Scopes))
	for _, scope := range client.Scopes {
		allowed[scope] = true
	}

	granted := make([]string, 0, len(requested))
	seen := make(map[string]bool, len(requested))
	for _, scope := range requested {
		if !allowed[scope] {
			return nil, domain.ErrScopeNotAllowed
		}
		if seen[scope] {
			continue
		}
		seen[scope] = true
		granted = append(granted, scope)
	}

	return granted, nil
}

func dedupe(scopes []string) []string {
	seen := make(map[string]bool, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		if seen[scope] {
			continue
		}
		seen[scope] = true
		out = append(out, scope)
	}
	return out
}
