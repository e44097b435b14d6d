// Package router classifies intercepted requests and applies the matching
// offline caching strategy.
package router

import (
	"net/http"
	"path"
	"strings"
)

// Class is the request category that selects a caching strategy.
type Class int

const (
	// ClassOther is API-like or otherwise unrecognized data.
	ClassOther Class = iota

	// ClassStatic is a script, stylesheet, or font.
	ClassStatic

	// ClassImage is a raster or vector image.
	ClassImage

	// ClassNavigation is a top-level page load.
	ClassNavigation
)

// String returns the metric/log label of the class.
func (c Class) String() string {
	switch c {
	case ClassStatic:
		return "static"
	case ClassImage:
		return "image"
	case ClassNavigation:
		return "navigation"
	default:
		return "other"
	}
}

var staticExtensions = map[string]bool{
	".js":    true,
	".mjs":   true,
	".css":   true,
	".woff":  true,
	".woff2": true,
	".ttf":   true,
	".otf":   true,
	".eot":   true,
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
	".webp": true,
	".avif": true,
	".ico":  true,
}

// Intercepts reports whether req is subject to offline caching at all.
// Only GET requests over http or https are intercepted, and never those
// bound for the hosted backend (backendHost or any of its subdomains).
func Intercepts(req *http.Request, backendHost string) bool {
	if req == nil || req.URL == nil {
		return false
	}
	if req.Method != http.MethodGet {
		return false
	}

	switch strings.ToLower(req.URL.Scheme) {
	case "http", "https":
	default:
		return false
	}

	return !IsBackendHost(req.URL.Hostname(), backendHost)
}

// IsBackendHost reports whether host is backendHost or one of its subdomains.
func IsBackendHost(host, backendHost string) bool {
	if backendHost == "" {
		return false
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	backendHost = strings.ToLower(strings.TrimSuffix(backendHost, "."))
	return host == backendHost || strings.HasSuffix(host, "."+backendHost)
}

// Classify assigns req to exactly one Class. Extension checks win over the
// navigation check, so a page load of /logo.png is still an image.
func Classify(req *http.Request) Class {
	ext := strings.ToLower(path.Ext(req.URL.Path))

	switch {
	case staticExtensions[ext]:
		return ClassStatic
	case imageExtensions[ext]:
		return ClassImage
	case isNavigation(req):
		return ClassNavigation
	default:
		return ClassOther
	}
}

// isNavigation detects a top-level page load. Browsers send
// Sec-Fetch-Mode; older clients only reveal it through Accept.
func isNavigation(req *http.Request) bool {
	if mode := req.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return strings.EqualFold(mode, "navigate")
	}
	return prefersHTML(req.Header.Get("Accept"))
}

// prefersHTML reports whether text/html is the first media range in accept.
func prefersHTML(accept string) bool {
	if accept == "" {
		return false
	}
	first, _, _ := strings.Cut(accept, ",")
	mediaType, _, _ := strings.Cut(first, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), "text/html")
}
