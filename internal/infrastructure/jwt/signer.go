package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/config"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Signer mints RS256 ID tokens for grants that carry the "openid" scope
type Signer struct {
	privateKey *rsa.PrivateKey
	issuer     string
	keyID      string
	logger     *zap.Logger
}

// NewSigner creates a Signer with a freshly generated RSA key pair
func NewSigner(cfg *config.Config, logger *zap.Logger) (*Signer, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, cfg.RSAKeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	return &Signer{
		privateKey: privateKey,
		issuer:     cfg.Issuer,
		keyID:      keyID(privateKey),
		logger:     logger,
	}, nil
}

// SignIDToken creates a signed ID token for the given user and client
func (s *Signer) SignIDToken(userID, clientID string, expiresAt time.Time) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   userID,
		Audience:  jwt.ClaimStrings{clientID},
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        ulid.Make().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		s.logger.Error("Failed to sign ID token",
			zap.String("user_id", userID),
			zap.String("client_id", clientID),
			zap.Error(err))
		return "", fmt.Errorf("failed to sign ID token: %w", err)
	}

	return signed, nil
}

// PublicKey returns the verification key for the current signing key
func (s *Signer) PublicKey() *rsa.PublicKey {
	return &s.privateKey.PublicKey
}

// KeyID returns the identifier of the current signing key
func (s *Signer) KeyID() string {
	return s.keyID
}

// keyID derives a stable identifier from the public key components
func keyID(key *rsa.PrivateKey) string {
	data := append(key.N.Bytes(), byte(key.E))
	hash := sha256.Sum256(data)
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// Base64URLUint encodes a big integer the way JWK wants its key parameters
func Base64URLUint(n *big.Int) string {
	return base64.RawURLEncoding.EncodeToString(n.Bytes())
}
