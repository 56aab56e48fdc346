package handlers

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/ipede/oauth-grant-service/internal/infrastructure/config"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/jwt"
	"go.uber.org/zap"
)

// DiscoveryHandler serves authorization server metadata and the JWKS
type DiscoveryHandler struct {
	signer *jwt.Signer
	cfg    *config.Config
	logger *zap.Logger
}

// NewDiscoveryHandler creates a new DiscoveryHandler
func NewDiscoveryHandler(signer *jwt.Signer, cfg *config.Config, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		signer: signer,
		cfg:    cfg,
		logger: logger,
	}
}

// MetadataHandler serves the authorization server metadata document (RFC 8414)
func (h *DiscoveryHandler) MetadataHandler(w http.ResponseWriter, r *http.Request) {
	issuer := h.cfg.Issuer

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"issuer":                                issuer,
		"authorization_endpoint":                issuer + "/api/oauth2/authorize",
		"token_endpoint":                        issuer + "/api/oauth2/token",
		"revocation_endpoint":                   issuer + "/api/oauth2/revoke",
		"introspection_endpoint":                issuer + "/api/oauth2/introspect",
		"jwks_uri":                              issuer + "/api/.well-known/jwks.json",
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_basic", "client_secret_post"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

// JWKSHandler serves the public key set used to verify ID tokens
func (h *DiscoveryHandler) JWKSHandler(w http.ResponseWriter, r *http.Request) {
	publicKey := h.signer.PublicKey()

	jwk := map[string]interface{}{
		"kty": "RSA",
		"use": "sig",
		"alg": "RS256",
		"kid": h.signer.KeyID(),
		"n":   jwt.Base64URLUint(publicKey.N),
		"e":   jwt.Base64URLUint(big.NewInt(int64(publicKey.E))),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"keys": []map[string]interface{}{jwk},
	})
}
