package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/ipede/oauth-grant-service/internal/application"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/config"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/database"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/jwt"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/repository"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/token"
	"github.com/ipede/oauth-grant-service/internal/interfaces/http/handlers"
	"go.uber.org/zap"
)

type Router struct {
	router *chi.Mux
	db     *database.Postgres
}

func NewRouter(
	db *database.Postgres,
	signer *jwt.Signer,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	clientRepo := repository.NewClientRepository(db, logger)
	codeRepo := repository.NewCodeRepository(db, logger)
	tokenRepo := repository.NewTokenRepository(db, logger)

	generator := token.NewGenerator()
	scopes := application.NewScopeNegotiator()
	clientService := application.NewClientService(clientRepo, tokenRepo, logger)
	authorizationService := application.NewAuthorizationService(clientRepo, codeRepo, scopes, generator, cfg, logger)
	tokenService := application.NewTokenService(clientService, codeRepo, tokenRepo, generator, signer, cfg, logger)

	oauth2Handler := handlers.NewOAuth2Handler(authorizationService, tokenService, logger)
	clientHandler := handlers.NewClientHandler(clientService, logger)
	discoveryHandler := handlers.NewDiscoveryHandler(signer, cfg, logger)

	// Bearer tokens for the authorize and client management endpoints; the
	// token endpoint authenticates clients itself.
	tokenAuth := jwtauth.New("HS256", []byte(cfg.AuthJWTSecret), nil)

	router := createRouter()

	// Health check endpoints
	router.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := db.Ping(); err != nil {
				logger.Error("Database health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("Database connection failed"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Ready"))
		})

		r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Alive"))
		})
	})

	router.Route("/api", func(r chi.Router) {
		// Discovery routes
		r.Group(func(r chi.Router) {
			r.Get("/.well-known/oauth-authorization-server", discoveryHandler.MetadataHandler)
			r.Get("/.well-known/jwks.json", discoveryHandler.JWKSHandler)
		})

		// Token endpoint routes; clients authenticate with their own credentials
		r.Group(func(r chi.Router) {
			r.Post("/oauth2/token", oauth2Handler.TokenHandler)
			r.Post("/oauth2/revoke", oauth2Handler.RevokeHandler)
			r.Post("/oauth2/introspect", oauth2Handler.IntrospectHandler)
		})

		// Routes requiring an authenticated resource owner
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

	return &Router{router: router, db: db}
}

func createRouter() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Timeout(60 * time.Second))

	return router
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
