package testutil

import (
	"net/http"

	id "badgeledger/pkg/domain"
	"badgeledger/pkg/requestcontext"
)

// WithAccount adds an authenticated account to the request context.
// This simulates what the auth middleware does for bearer tokens.
// Malformed accounts are not added.
func WithAccount(req *http.Request, account string) *http.Request {
	parsed, err := id.ParseAccount(account)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithAccount(req.Context(), parsed))
}

// WithRoles adds caller roles to the request context.
func WithRoles(req *http.Request, roles ...string) *http.Request {
	return req.WithContext(requestcontext.WithRoles(req.Context(), roles))
}
