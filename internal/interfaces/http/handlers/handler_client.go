package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ipede/oauth-grant-service/internal/application"
	"github.com/ipede/oauth-grant-service/internal/domain"
	httperrors "github.com/ipede/oauth-grant-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// ClientRequest represents the request to create or update an OAuth client
type ClientRequest struct {
	Name        string   `json:"name"`
	RedirectURI string   `json:"redirect_uri"`
	Scopes      []string `json:"scopes"`
	Type        string   `json:"type"`
	Status      string   `json:"status,omitempty"`
	Secret      string   `json:"secret,omitempty"`
}

// ClientCreatedResponse returns the new client together with its plaintext
// secret, which is shown exactly once
type ClientCreatedResponse struct {
	Client *domain.OAuthClient `json:"client"`
	Secret string              `json:"secret,omitempty"`
}

// ClientHandler handles OAuth client management
type ClientHandler struct {
	clients *application.ClientService
	logger  *zap.Logger
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clients *application.ClientService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		clients: clients,
		logger:  logger,
	}
}

// CreateClientHandler registers a new OAuth client
func (h *ClientHandler) CreateClientHandler(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request body", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid request body", nil, http.StatusBadRequest)
		return
	}

	if verr := validateClientRequest(req); verr.HasErrors() {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Validation failed", verr, http.StatusBadRequest)
		return
	}

	userID, err := subjectFromContext(r)
	if err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Missing subject", nil, http.StatusUnauthorized)
		return
	}

	clientType := domain.ClientType(req.Type)
	if clientType == domain.ClientTypeConfidential && req.Secret == "" {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Confidential clients require a secret", nil, http.StatusBadRequest)
		return
	}

	client, err := h.clients.CreateClient(r.Context(), application.CreateClientInput{
		Name:        req.Name,
		RedirectURI: req.RedirectURI,
		Scopes:      req.Scopes,
		Type:        clientType,
		UserID:      userID,
	}, req.Secret)
	if err != nil {
		h.logger.Error("Failed to create client", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to create client", nil, http.StatusInternalServerError)
		return
	}

	h.logger.Info("Client created", zap.String("client_id", client.ID))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ClientCreatedResponse{Client: client, Secret: req.Secret})
}

// GetClientHandler returns a single OAuth client
func (h *ClientHandler) GetClientHandler(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")

	client, err := h.clients.GetClient(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "Client not found", nil, http.StatusNotFound)
		} else {
			h.logger.Error("Failed to find client", zap.String("client_id", clientID), zap.Error(err))
			httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to find client", nil, http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(client)
}

// ListClientsHandler lists all OAuth clients
func (h *ClientHandler) ListClientsHandler(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.ListClients(r.Context())
	if err != nil {
		h.logger.Error("Failed to list clients", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to list clients", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(clients)
}

// UpdateClientHandler mutates an existing OAuth client
func (h *ClientHandler) UpdateClientHandler(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")

	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request body", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid request body", nil, http.StatusBadRequest)
		return
	}

	if verr := validateClientRequest(req); verr.HasErrors() {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Validation failed", verr, http.StatusBadRequest)
		return
	}

	client, err := h.clients.GetClient(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "Client not found", nil, http.StatusNotFound)
		} else {
			h.logger.Error("Failed to find client", zap.String("client_id", clientID), zap.Error(err))
			httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to find client", nil, http.StatusInternalServerError)
		}
		return
	}

	client.Name = req.Name
	client.RedirectURI = req.RedirectURI
	client.Scopes = req.Scopes
	if req.Status != "" {
		client.Status = domain.ClientStatus(req.Status)
	}

	if err := h.clients.UpdateClient(r.Context(), client); err != nil {
		h.logger.Error("Failed to update client", zap.String("client_id", clientID), zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to update client", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(client)
}

// DeleteClientHandler removes an OAuth client without live tokens
func (h *ClientHandler) DeleteClientHandler(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")

	err := h.clients.DeleteClient(r.Context(), clientID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrClientNotFound):
		httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "Client not found", nil, http.StatusNotFound)
	case errors.Is(err, domain.ErrClientHasTokens):
		httperrors.RespondWithError(w, httperrors.ErrCodeConflict, "Client has active tokens; disable it instead", nil, http.StatusConflict)
	default:
		h.logger.Error("Failed to delete client", zap.String("client_id", clientID), zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to delete client", nil, http.StatusInternalServerError)
	}
}

// validateClientRequest validates the client request
func validateClientRequest(req ClientRequest) httperrors.ValidationErrors {
	var verr httperrors.ValidationErrors

	if req.Name == "" {
		verr.Add("name", "Client name is required")
	}
	if req.RedirectURI == "" {
		verr.Add("redirect_uri", "Redirect URI is required")
	}
	if len(req.Scopes) == 0 {
		verr.Add("scopes", "At least one scope is required")
	}
	if req.Type != string(domain.ClientTypePublic) && req.Type != string(domain.ClientTypeConfidential) {
		verr.Add("type", "Type must be PUBLIC or CONFIDENTIAL")
	}

	return verr
}
