package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/ipede/oauth-grant-service/internal/application"
	"github.com/ipede/oauth-grant-service/internal/domain"
	httperrors "github.com/ipede/oauth-grant-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// TokenResponse is the success body of the token endpoint
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	IDToken      string `json:"id_token,omitempty"`
}

// IntrospectionResponse is the body of the introspection endpoint (RFC 7662)
type IntrospectionResponse struct {
	Active   bool   `json:"active"`
	ClientID string `json:"client_id,omitempty"`
	Subject  string `json:"sub,omitempty"`
	Scope    string `json:"scope,omitempty"`
}

// OAuth2Handler exposes the authorization code grant over HTTP
type OAuth2Handler struct {
	authorizations *application.AuthorizationService
	tokens         *application.TokenService
	logger         *zap.Logger
}

// NewOAuth2Handler creates a new OAuth2Handler
func NewOAuth2Handler(authorizations *application.AuthorizationService, tokens *application.TokenService, logger *zap.Logger) *OAuth2Handler {
	return &OAuth2Handler{
		authorizations: authorizations,
		tokens:         tokens,
		logger:         logger,
	}
}

// AuthorizeHandler issues an authorization code and redirects back to the
// client. The resource owner's identity comes from the bearer token the
// middleware already verified.
func (h *OAuth2Handler) AuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	clientID := query.Get("client_id")
	redirectURI := query.Get("redirect_uri")
	state := query.Get("state")
	scopes := splitScope(query.Get("scope"))

	if clientID == "" || redirectURI == "" {
		httperrors.RespondWithOAuthError(w, httperrors.ErrCodeInvalidRequest, "client_id and redirect_uri are required", http.StatusBadRequest)
		return
	}

	userID, err := subjectFromContext(r)
	if err != nil {
		h.logger.Error("Missing subject claim", zap.Error(err))
		httperrors.RespondWithOAuthError(w, httperrors.ErrCodeInvalidRequest, "missing subject", http.StatusUnauthorized)
		return
	}

	authCode, err := h.authorizations.Authorize(r.Context(), clientID, userID, scopes, redirectURI, state)
	if err != nil {
		code, desc, status := httperrors.MapDomainError(err)
		httperrors.RespondWithOAuthError(w, code, desc, status)
		return
	}

	location, err := url.Parse(redirectURI)
	if err != nil {
		httperrors.RespondWithOAuthError(w, httperrors.ErrCodeInvalidRequest, "invalid redirect_uri", http.StatusBadRequest)
		return
	}
	params := location.Query()
	params.Set("code", authCode.Code)
	if state != "" {
		params.Set("state", state)
	}
	location.RawQuery = params.Encode()

	http.Redirect(w, r, location.String(), http.StatusFound)
}

// TokenHandler serves the token endpoint for the authorization_code and
// refresh_token grant types
func (h *OAuth2Handler) TokenHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.RespondWithOAuthError(w, httperrors.ErrCodeInvalidRequest, "malformed request body", http.StatusBadRequest)
		return
	}

	clientID, clientSecret := clientCredentials(r)
	if clientID == "" {
		httperrors.RespondWithOAuthError(w, httperrors.ErrCodeInvalidClient, "client authentication failed", http.StatusUnauthorized)
		return
	}

	switch r.PostFormValue("grant_type") {
	case "authorization_code":
		bundle, err := h.tokens.Exchange(r.Context(),
			r.PostFormValue("code"), clientID, clientSecret, r.PostFormValue("redirect_uri"))
		if err != nil {
			code, desc, status := httperrors.MapDomainError(err)
			httperrors.RespondWithOAuthError(w, code, desc, status)
			return
		}
		h.respondWithBundle(w, bundle)

	case "refresh_token":
		bundle, err := h.tokens.Refresh(r.Context(),
			r.PostFormValue("refresh_token"), clientID, clientSecret)
		if err != nil {
			code, desc, status := httperrors.MapDomainError(err)
			httperrors.RespondWithOAuthError(w, code, desc, status)
			return
		}
		h.respondWithBundle(w, bundle)

	default:
		httperrors.RespondWithOAuthError(w, httperrors.ErrCodeUnsupportedGrantType, "unsupported grant_type", http.StatusBadRequest)
	}
}

// RevokeHandler serves token revocation (RFC 7009). Revocation is idempotent
// and absent tokens still revoke successfully.
func (h *OAuth2Handler) RevokeHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.RespondWithOAuthError(w, httperrors.ErrCodeInvalidRequest, "malformed request body", http.StatusBadRequest)
		return
	}

	value := r.PostFormValue("token")
	if value == "" {
		httperrors.RespondWithOAuthError(w, httperrors.ErrCodeInvalidRequest, "token is required", http.StatusBadRequest)
		return
	}

	if err := h.tokens.Revoke(r.Context(), value); err != nil {
		h.logger.Error("Failed to revoke token", zap.Error(err))
		httperrors.RespondWithOAuthError(w, httperrors.ErrCodeServerError, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// IntrospectHandler reports whether an access token is active (RFC 7662).
// Inactive tokens produce {"active": false}, never an error.
func (h *OAuth2Handler) IntrospectHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.RespondWithOAuthError(w, httperrors.ErrCodeInvalidRequest, "malformed request body", http.StatusBadRequest)
		return
	}

	info, err := h.tokens.Validate(r.Context(), r.PostFormValue("token"))
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		json.NewEncoder(w).Encode(IntrospectionResponse{Active: false})
		return
	}

	json.NewEncoder(w).Encode(IntrospectionResponse{
		Active:   true,
		ClientID: info.ClientID,
		Subject:  info.UserID,
		Scope:    strings.Join(info.Scopes, " "),
	})
}

func (h *OAuth2Handler) respondWithBundle(w http.ResponseWriter, bundle *domain.TokenBundle) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(TokenResponse{
		AccessToken:  bundle.AccessToken,
		TokenType:    bundle.TokenType,
		ExpiresIn:    int64(time.Until(bundle.ExpiresAt).Seconds()),
		RefreshToken: bundle.RefreshToken,
		Scope:        strings.Join(bundle.Scopes, " "),
		IDToken:      bundle.IDToken,
	})
}

// clientCredentials extracts client authentication from HTTP Basic auth or,
// failing that, from the form body (client_secret_basic / client_secret_post)
func clientCredentials(r *http.Request) (string, string) {
	if id, secret, ok := r.BasicAuth(); ok {
		return id, secret
	}
	return r.PostFormValue("client_id"), r.PostFormValue("client_secret")
}

// subjectFromContext reads the authenticated user's subject claim
func subjectFromContext(r *http.Request) (string, error) {
	token, _, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", err
	}
	return token.Subject(), nil
}

func splitScope(scope string) []string {
	if scope == "" {
		return nil
	}
	return strings.Fields(scope)
}
