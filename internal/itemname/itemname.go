// Package itemname judges whether a product name is descriptive enough to show
// with confidence, and whether a newly scraped or submitted name should replace
// the one already on file.
package itemname

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minHighQualityGain is how much longer a candidate must be to replace a name
// that is already high quality.
const minHighQualityGain = 4

// genericWords are product-category nouns that say nothing about the model.
var genericWords = map[string]struct{}{
	"tool": {}, "tools": {}, "drill": {}, "driver": {}, "kit": {}, "set": {},
	"headlamp": {}, "flashlight": {}, "light": {}, "lights": {}, "lamp": {},
	"bulb": {}, "bulbs": {}, "battery": {}, "batteries": {}, "charger": {},
	"saw": {}, "blade": {}, "blades": {}, "bit": {}, "bits": {},
	"hammer": {}, "wrench": {}, "screwdriver": {}, "pliers": {},
	"fan": {}, "heater": {}, "hose": {}, "nozzle": {}, "sprinkler": {},
	"paint": {}, "brush": {}, "roller": {}, "tape": {}, "glue": {},
	"faucet": {}, "fixture": {}, "switch": {}, "outlet": {}, "cord": {},
	"item": {}, "product": {}, "pack": {}, "combo": {}, "bundle": {},
	"led": {}, "cordless": {}, "rechargeable": {},
}

// IsLowQuality reports whether name is too generic to display confidently.
// A leading brand is ignored when judging the remainder.
func IsLowQuality(name, brand string) bool {
	return lowQuality(tokens(name, brand))
}

// ShouldPreferEnriched reports whether candidate should replace current.
func ShouldPreferEnriched(current, candidate, brand string) bool {
	cur := normalizeSpace(current)
	cand := normalizeSpace(candidate)
	if cand == "" || strings.EqualFold(cur, cand) {
		return false
	}

	curTokens := tokens(cur, brand)
	candTokens := tokens(cand, brand)
	curLow := lowQuality(curTokens)
	candLow := lowQuality(candTokens)

	switch {
	case curLow && !candLow:
		return true
	case !curLow && candLow:
		return false
	}

	if !gainsModelToken(curTokens, candTokens) {
		return false
	}
	delta := utf8.RuneCountInString(cand) - utf8.RuneCountInString(cur)
	if curLow {
		return delta > 0
	}
	return delta >= minHighQualityGain
}

// IsModelLike reports whether token mixes letters and digits, e.g. "FLX65R".
func IsModelLike(token string) bool {
	var letter, digit bool
	for _, r := range token {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
		if letter && digit {
			return true
		}
	}
	return false
}

func lowQuality(toks []string) bool {
	if len(toks) == 0 {
		return true
	}
	if len(toks) == 1 {
		return !IsModelLike(toks[0])
	}
	if len(toks) > 2 {
		return false
	}

	anyModel := false
	allGeneric := true
	for _, tok := range toks {
		if IsModelLike(tok) {
			anyModel = true
		}
		if !isGeneric(tok) {
			allGeneric = false
		}
	}
	return !anyModel || allGeneric
}

func isGeneric(tok string) bool {
	_, ok := genericWords[strings.Trim(strings.ToLower(tok), ",.;:!?()[]\"'-")]
	return ok
}

func gainsModelToken(current, candidate []string) bool {
	have := make(map[string]struct{}, len(current))
	for _, tok := range current {
		if IsModelLike(tok) {
			have[strings.ToLower(tok)] = struct{}{}
		}
	}
	for _, tok := range candidate {
		if !IsModelLike(tok) {
			continue
		}
		if _, ok := have[strings.ToLower(tok)]; !ok {
			return true
		}
	}
	return false
}

// tokens normalizes whitespace, drops a leading brand and splits the rest.
func tokens(name, brand string) []string {
	return strings.Fields(stripBrand(normalizeSpace(name), normalizeSpace(brand)))
}

func stripBrand(name, brand string) string {
	if brand == "" || len(name) < len(brand) {
		return name
	}
	if !strings.EqualFold(name[:len(brand)], brand) {
		return name
	}
	rest := name[len(brand):]
	if rest != "" && rest[0] != ' ' {
		// "Coastal" does not carry the brand "Coast".
		return name
	}
	return strings.TrimSpace(rest)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
