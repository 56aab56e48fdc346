package domain

import "errors"

var (
	// ErrClientNotFound is returned when no client exists for the given ID
	ErrClientNotFound = errors.New("client not found")

	// ErrClientDisabled is returned when the client is inactive or suspended
	ErrClientDisabled = errors.New("client disabled")

	// ErrInvalidClientSecret is returned when a confidential client presents a wrong secret
	ErrInvalidClientSecret = errors.New("invalid client secret")

	// ErrScopeNotAllowed is returned when requested scopes exceed the client's registered scopes
	ErrScopeNotAllowed = errors.New("scope not allowed")

	// ErrRedirectURIMismatch is returned when the redirect URI does not match the registered one
	ErrRedirectURIMismatch = errors.New("redirect URI mismatch")

	// ErrInvalidGrant covers a missing, expired, or already-consumed code or refresh token.
	// Replay of either artifact surfaces as this error and nothing more specific,
	// so a caller cannot distinguish a spent grant from one that never existed.
	ErrInvalidGrant = errors.New("invalid grant")

	// ErrTokenExpired is returned when an access token is past its expiry
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenNotFound is returned when no access token exists for the given ID
	ErrTokenNotFound = errors.New("token not found")

	// ErrClientHasTokens is returned when deleting a client that live tokens still reference
	ErrClientHasTokens = errors.New("client has active tokens")

	// ErrInternal is returned when there is an internal server error
	ErrInternal = errors.New("internal server error")
)
