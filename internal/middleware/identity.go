// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"strings"

	"lexdesk/internal/identity"
)

// Identity headers set by the upstream gateway after authentication.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
)

// Identity attaches the acting user from the gateway headers to the
// request context. Requests without a user ID run as identity.System.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		u := identity.User{ID: id, Name: strings.TrimSpace(r.Header.Get(HeaderUserName))}
		next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), u)))
	})
}
