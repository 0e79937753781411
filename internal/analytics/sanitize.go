// Package analytics cleans event parameters before they reach the third-party
// collector and relays the cleaned events.
package analytics

import (
	"regexp"
	"strings"
)

// blockedKeys carry a direct product or user identifier, in folded form (see
// foldKey). Masked variants such as "skuMasked" are not listed and pass through.
var blockedKeys = map[string]struct{}{
	"sku":            {},
	"name":           {},
	"itemname":       {},
	"upc":            {},
	"id":             {},
	"itemid":         {},
	"internetnumber": {},
	"email":          {},
	"phone":          {},
}

type remap struct {
	legacy  string
	targets []string
}

// legacyRemaps collide with reserved attribution parameters on the collector.
// Order matters: an earlier legacy key claims a target before a later one.
var legacyRemaps = []remap{
	{legacy: "source", targets: []string{"ui_source", "pc_source"}},
	{legacy: "src", targets: []string{"ui_source", "pc_source"}},
	{legacy: "medium", targets: []string{"pc_medium"}},
	{legacy: "campaign", targets: []string{"pc_campaign"}},
}

var legacyKeys = func() map[string]struct{} {
	m := make(map[string]struct{}, len(legacyRemaps))
	for _, r := range legacyRemaps {
		m[r.legacy] = struct{}{}
	}
	return m
}()

var eventNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,39}$`)

// ValidEventName reports whether name is acceptable to the collector.
func ValidEventName(name string) bool {
	return eventNamePattern.MatchString(name)
}

// Sanitize returns a cleaned copy of params. Identifier keys are dropped,
// legacy attribution keys are moved onto prefixed names unless the prefixed
// name was supplied explicitly, and nil values are removed. Key matching
// ignores case, underscores and hyphens. params is not modified.
func Sanitize(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	legacy := make(map[string]any)
	for k, v := range params {
		if v == nil {
			continue
		}
		folded := foldKey(k)
		if _, blocked := blockedKeys[folded]; blocked {
			continue
		}
		if _, ok := legacyKeys[folded]; ok {
			// The exact lower-case spelling wins over variants like "Source".
			if _, seen := legacy[folded]; !seen || k == folded {
				legacy[folded] = v
			}
			continue
		}
		out[k] = v
	}

	for _, r := range legacyRemaps {
		v, ok := legacy[r.legacy]
		if !ok {
			continue
		}
		for _, target := range r.targets {
			if _, taken := out[target]; taken {
				continue
			}
			out[target] = v
		}
	}
	return out
}

// foldKey lower-cases k and drops underscores and hyphens, so "Item_Name",
// "itemName" and "item-name" compare equal.
func foldKey(k string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return -1
		}
		return r
	}, strings.ToLower(k))
}
