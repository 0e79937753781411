// Package imageurl rewrites vendor CDN image URLs to a canonical size variant.
package imageurl

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	// CDNDomain is the vendor image host. Subdomains match too.
	CDNDomain = "thdstatic.com"

	DetailWidth    = 600
	ThumbnailWidth = 400
)

var sizeVariant = regexp.MustCompile(`-64_\d+\.jpg`)

// Canonicalize rewrites every "-64_<width>.jpg" variant in the path of a CDN
// URL to the requested width. URLs that fail to parse or live on another host
// come back unchanged.
func Canonicalize(raw string, width int) string {
	if raw == "" || width <= 0 {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || !isCDNHost(u.Hostname()) {
		return raw
	}

	// Rewrite the raw text instead of u.String() so the rest of the URL stays
	// byte-identical.
	end := len(raw)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		end = i
	}
	target := "-64_" + strconv.Itoa(width) + ".jpg"
	return sizeVariant.ReplaceAllLiteralString(raw[:end], target) + raw[end:]
}

// Detail returns the variant used on item detail pages.
func Detail(raw string) string {
	return Canonicalize(raw, DetailWidth)
}

// Thumbnail returns the variant used in list views.
func Thumbnail(raw string) string {
	return Canonicalize(raw, ThumbnailWidth)
}

func isCDNHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return host == CDNDomain || strings.HasSuffix(host, "."+CDNDomain)
}
