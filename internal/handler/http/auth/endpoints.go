package auth

import "strings"

// PublicEndpoints never require a token, even when wrapped by Authz.
var PublicEndpoints = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
	"/auth/token",
}

// IsPublicEndpoint reports whether path is one of PublicEndpoints. A
// trailing slash is tolerated, sub paths are not: "/health/" is public,
// "/health/db" is not.
func IsPublicEndpoint(path string) bool {
	path = strings.TrimSuffix(path, "/")
	for _, endpoint := range PublicEndpoints {
		if path == endpoint {
			return true
		}
	}
	return false
}
