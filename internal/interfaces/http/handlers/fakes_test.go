package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/ipede/oauth-grant-service/internal/application"
	"github.com/ipede/oauth-grant-service/internal/domain"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/config"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/secret"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/token"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore backs the handler tests with an in-memory store so requests flow
// through the real services end to end.
type fakeStore struct {
	mu      sync.Mutex
	clients map[string]*domain.OAuthClient
	codes   map[string]*domain.AuthorizationCode
	tokens  map[string]*domain.AccessToken
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	hash, err := secret.HashSecret("s3cr3t")
	require.NoError(t, err)
	return &fakeStore{
		clients: map[string]*domain.OAuthClient{
			"c1": {
				ID:          "c1",
				Name:        "Test App",
				SecretHash:  hash,
				RedirectURI: "https://app/cb",
				Scopes:      []string{"read", "write"},
				Type:        domain.ClientTypeConfidential,
				Status:      domain.ClientStatusActive,
				UserID:      "u1",
			},
		},
		codes:  make(map[string]*domain.AuthorizationCode),
		tokens: make(map[string]*domain.AccessToken),
	}
}

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
	if _, ok := r.s.clients[client.ID]; !ok {
		return domain.ErrClientNotFound
	}
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

func (r *fakeTokenRepo) CreateConsumingCode(ctx context.Context, code string, tok *domain.AccessToken) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[code]
	if !ok || c.Used {
		return false, nil
	}
	c.Used = true
	r.s.tokens[tok.ID] = tok
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

func (r *fakeTokenRepo) Rotate(ctx context.Context, oldID string, tok *domain.AccessToken) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tokens[oldID]; !ok {
		return false, nil
	}
	delete(r.s.tokens, oldID)
	r.s.tokens[tok.ID] = tok
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

// testServer wires the handlers onto a chi router the same way the
// production router does, backed by the in-memory store.
type testServer struct {
	store     *fakeStore
	router    *chi.Mux
	tokenAuth *jwtauth.JWTAuth
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zap.NewNop()
	cfg := config.NewConfig()
	store := newFakeStore(t)
	clientRepo := &fakeClientRepo{store}
	codeRepo := &fakeCodeRepo{store}
	tokenRepo := &fakeTokenRepo{store}

	generator := token.NewGenerator()
	scopes := application.NewScopeNegotiator()
	clientService := application.NewClientService(clientRepo, tokenRepo, logger)
	authorizationService := application.NewAuthorizationService(clientRepo, codeRepo, scopes, generator, cfg, logger)
	tokenService := application.NewTokenService(clientService, codeRepo, tokenRepo, generator, nil, cfg, logger)

	oauth2Handler := NewOAuth2Handler(authorizationService, tokenService, logger)
	clientHandler := NewClientHandler(clientService, logger)

	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Post("/oauth2/token", oauth2Handler.TokenHandler)
			r.Post("/oauth2/revoke", oauth2Handler.RevokeHandler)
			r.Post("/oauth2/introspect", oauth2Handler.IntrospectHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(tokenAuth), jwtauth.Authenticator(tokenAuth))
			r.Get("/oauth2/authorize", oauth2Handler.AuthorizeHandler)

			r.Post("/oauth2/clients", clientHandler.CreateClientHandler)
			r.Get("/oauth2/clients", clientHandler.ListClientsHandler)
			r.Get("/oauth2/clients/{id}", clientHandler.GetClientHandler)
			r.Put("/oauth2/clients/{id}", clientHandler.UpdateClientHandler)
			r.Delete("/oauth2/clients/{id}", clientHandler.DeleteClientHandler)
		})
	})

	return &testServer{store: store, router: router, tokenAuth: tokenAuth}
}

// bearer mints a resource owner bearer token for the given subject
func (s *testServer) bearer(t *testing.T, subject string) string {
	t.Helper()
	_, signed, err := s.tokenAuth.Encode(map[string]interface{}{"sub": subject})
	require.NoError(t, err)
	return "Bearer " + signed
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// postForm sends a form-encoded POST with optional HTTP Basic client auth
func (s *testServer) postForm(path string, form url.Values, clientID, clientSecret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if clientID != "" {
		req.SetBasicAuth(clientID, clientSecret)
	}
	return s.do(req)
}
