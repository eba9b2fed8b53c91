// Copyright (c) 2026 Voxdesk. All rights reserved.

package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/anujmtekyz/voxdesk/internal/platform/constants"
)

// GateConfig describes the path classification used by [SessionGate].
type GateConfig struct {
	// PublicPaths are page paths served to unauthenticated visitors
	// (login, forgot-password, reset-password, landing). Exact match.
	PublicPaths []string

	// ExemptPrefixes are path prefixes the gate never touches: API routes,
	// static assets, health probes. The API performs its own full token
	// validation regardless of how the gate classified the request.
	ExemptPrefixes []string

	// LoginPath is where protected-page requests without a session credential
	// are redirected.
	LoginPath string

	// HomePath is the authenticated landing area, used when a logged-in
	// session hits a public page.
	HomePath string

	// CookieName is the refresh-credential cookie inspected by the gate.
	CookieName string
}

// DefaultGateConfig returns the gate wiring for the standard page tree.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		PublicPaths: []string{
			"/",
			constants.LoginPagePath,
			"/forgot-password",
			"/reset-password",
		},
		ExemptPrefixes: []string{
			"/auth/",
			"/users/",
			"/tickets",
			"/projects",
			"/assets/",
			"/health",
			"/ready",
			"/metrics",
		},
		LoginPath:  constants.LoginPagePath,
		HomePath:   constants.AppHomePath,
		CookieName: constants.RefreshTokenCookieName,
	}
}

// SessionGate is the stateless edge gate evaluated before any page handler.
//
// # Decision table
//
//   - Exempt path → pass through untouched.
//   - Public path + structurally-present refresh cookie → redirect to the
//     authenticated landing area (no login UI for a logged-in session).
//   - Protected path + no structural cookie → redirect to login, preserving
//     the original target in a `redirect` query parameter.
//   - Otherwise → pass through.
//
// # Presence, not validation
//
// The gate checks only that the cookie exists and is shaped like a JWT. It is
// a cheap first filter, NOT the authorization boundary: a forged cookie gets
// the visitor past the gate and no further, because every API call the page
// makes performs full cryptographic validation.
func SessionGate(cfg GateConfig) func(http.Handler) http.Handler {
	publicPaths := make(map[string]struct{}, len(cfg.PublicPaths))
	for _, path := range cfg.PublicPaths {
		publicPaths[path] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			path := request.URL.Path

			for _, prefix := range cfg.ExemptPrefixes {
				if strings.HasPrefix(path, prefix) {
					next.ServeHTTP(writer, request)
					return
				}
			}

			hasCredential := hasStructuralRefreshCookie(request, cfg.CookieName)
			_, isPublic := publicPaths[path]

			if isPublic && hasCredential {
				http.Redirect(writer, request, cfg.HomePath, http.StatusFound)
				return
			}

			if !isPublic && !hasCredential {
				target := cfg.LoginPath + "?" + constants.RedirectQueryParam + "=" + url.QueryEscape(path)
				http.Redirect(writer, request, target, http.StatusFound)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// hasStructuralRefreshCookie reports whether the request carries a cookie that
// is shaped like a signed refresh token (three dot-separated JWT segments).
//
// No signature or expiry check happens here.
func hasStructuralRefreshCookie(request *http.Request, cookieName string) bool {
	cookie, err := request.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	segments := strings.Split(cookie.Value, ".")
	if len(segments) != 3 {
		return false
	}

	for _, segment := range segments {
		if segment == "" {
			return false
		}
	}
	return true
}
