package auth

import (
	"slices"
	"strings"
)

const (
	// RoleAdmin may use every endpoint.
	RoleAdmin = "admin"
	// RoleViewer may only read.
	RoleViewer = "viewer"
)

// Permission lists the methods and paths a role may use. A path pattern
// ending in "/*" matches the prefix and everything below it.
type Permission struct {
	AllowedMethods []string
	AllowedPaths   []string
}

// RolePermissions maps each role to its permission.
var RolePermissions = map[string]Permission{
	RoleAdmin: {
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedPaths:   []string{"/*"},
	},
	RoleViewer: {
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedPaths: []string{
			"/stories/*",
			"/images/*",
			"/issues/*",
			"/frontpage/*",
			"/contributors/*",
		},
	},
}

func checkRolePermission(role, method, path string) bool {
	perm, ok := RolePermissions[role]
	if !ok {
		return false
	}
	if !slices.Contains(perm.AllowedMethods, method) {
		return false
	}
	return matchesPathPattern(path, perm.AllowedPaths)
}

func matchesPathPattern(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "/*" {
			return true
		}
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
			continue
		}
		if path == pattern {
			return true
		}
	}
	return false
}
