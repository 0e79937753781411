// Package adroute decides which site routes may carry advertising inventory.
//
// Resolution is a denylist: excluded prefixes are checked first and every
// other route is monetizable without an explicit opt-in.
package adroute

import (
	"strings"
)

type Policy string

const (
	PolicyAllow   Policy = "allow"
	PolicyExclude Policy = "exclude"
)

// InventoryProviderManaged delegates placement to the ad network.
const InventoryProviderManaged = "provider_managed"

// excludedPrefixes are interactive forms, admin pages and auth-gated pages.
var excludedPrefixes = []string{
	"/report-find",
	"/submit",
	"/admin",
	"/login",
	"/auth",
	"/account",
	"/unsubscribe",
	"/api",
}

// Decision is the resolved ad policy for one path.
type Decision struct {
	Path      string   `json:"path"`
	Policy    Policy   `json:"policy"`
	Inventory []string `json:"inventory"`
}

// Allowed reports whether the route may carry ads.
func (d Decision) Allowed() bool {
	return d.Policy == PolicyAllow
}

// Resolve returns the policy for path.
func Resolve(path string) Decision {
	p := NormalizePath(path)
	for _, prefix := range excludedPrefixes {
		if hasSegmentPrefix(p, prefix) {
			return Decision{Path: p, Policy: PolicyExclude, Inventory: []string{}}
		}
	}
	return Decision{Path: p, Policy: PolicyAllow, Inventory: []string{InventoryProviderManaged}}
}

// NormalizePath folds case, drops query and fragment, collapses repeated
// slashes and strips a trailing slash everywhere but the root.
func NormalizePath(path string) string {
	p := strings.TrimSpace(path)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.ToLower(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}

func hasSegmentPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
