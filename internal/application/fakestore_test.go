package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ipede/oauth-grant-service/internal/domain"
)

// fakeStore is a mutex-guarded in-memory backing store, used where tests
// exercise real concurrency and the call-sequence style of mock.Mock gets in
// the way. The repository interfaces have colliding method signatures, so the
// store is exposed through three thin views over the shared state.
type fakeStore struct {
	mu      sync.Mutex
	clients map[string]*domain.OAuthClient
	codes   map[string]*domain.AuthorizationCode
	tokens  map[string]*domain.AccessToken
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	return &fakeStore{
		clients: map[string]*domain.OAuthClient{
			"c1": confidentialClient(t, "c1", "s3cr3t"),
		},
		codes:  make(map[string]*domain.AuthorizationCode),
		tokens: make(map[string]*domain.AccessToken),
	}
}

func (s *fakeStore) clientRepo() domain.ClientRepository { return &fakeClientRepo{s} }
func (s *fakeStore) codeRepo() domain.CodeRepository     { return &fakeCodeRepo{s} }
func (s *fakeStore) tokenRepo() domain.TokenRepository   { return &fakeTokenRepo{s} }

type fakeClientRepo struct{ s *fakeStore }

func (r *fakeClientRepo) Create(ctx context.Context, client *domain.OAuthClient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clients[client.ID] = client
	return nil
}

func (r *fakeClientRepo) FindByID(ctx context.Context, id string) (*domain.OAuthClient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	client, ok := r.s.clients[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	return client, nil
}

func (r *fakeClientRepo) Update(ctx context.Context, client *domain.OAuthClient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clients[client.ID] = client
	return nil
}

func (r *fakeClientRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.clients, id)
	return nil
}

func (r *fakeClientRepo) List(ctx context.Context) ([]*domain.OAuthClient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.OAuthClient, 0, len(r.s.clients))
	for _, c := range r.s.clients {
		out = append(out, c)
	}
	return out, nil
}

type fakeCodeRepo struct{ s *fakeStore }

func (r *fakeCodeRepo) Create(ctx context.Context, code *domain.AuthorizationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.codes[code.Code] = code
	return nil
}

func (r *fakeCodeRepo) FindByCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[code]
	if !ok {
		return nil, domain.ErrInvalidGrant
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCodeRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	now := time.Now()
	for code, c := range r.s.codes {
		if now.After(c.ExpiresAt) {
			delete(r.s.codes, code)
			n++
		}
	}
	return n, nil
}

type fakeTokenRepo struct{ s *fakeStore }

func (r *fakeTokenRepo) CreateConsumingCode(ctx context.Context, code string, token *domain.AccessToken) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[code]
	if !ok || c.Used {
		return false, nil
	}
	c.Used = true
	r.s.tokens[token.ID] = token
	return true, nil
}

func (r *fakeTokenRepo) FindByID(ctx context.Context, id string) (*domain.AccessToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tok, ok := r.s.tokens[id]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	copied := *tok
	return &copied, nil
}

func (r *fakeTokenRepo) FindByRefreshToken(ctx context.Context, refreshToken string) (*domain.AccessToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tok := range r.s.tokens {
		if tok.RefreshToken == refreshToken {
			copied := *tok
			return &copied, nil
		}
	}
	return nil, domain.ErrTokenNotFound
}

func (r *fakeTokenRepo) Rotate(ctx context.Context, oldID string, token *domain.AccessToken) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tokens[oldID]; !ok {
		return false, nil
	}
	delete(r.s.tokens, oldID)
	r.s.tokens[token.ID] = token
	return true, nil
}

func (r *fakeTokenRepo) DeleteByID(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, id)
	return nil
}

func (r *fakeTokenRepo) DeleteByRefreshToken(ctx context.Context, refreshToken string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, tok := range r.s.tokens {
		if tok.RefreshToken == refreshToken {
			delete(r.s.tokens, id)
		}
	}
	return nil
}

func (r *fakeTokenRepo) CountByClient(ctx context.Context, clientID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, tok := range r.s.tokens {
		if tok.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

func (r *fakeTokenRepo) DeleteByClient(ctx context.Context, clientID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, tok := range r.s.tokens {
		if tok.ClientID == clientID {
			delete(r.s.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeTokenRepo) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, tok := range r.s.tokens {
		if tok.CreatedAt.Before(cutoff) {
			delete(r.s.tokens, id)
			n++
		}
	}
	return n, nil
}
