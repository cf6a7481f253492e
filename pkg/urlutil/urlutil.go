package urlutil

import (
	"net/url"
	"sort"
	"strings"
)

// Canonicalize applies a deterministic normalization to a URL, producing a canonical form.
// It maps equivalent URL spellings to a single canonical representation.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Path is cleaned (trailing slashes removed, except for root "/")
//   - Fragments are removed
//   - Query parameters are removed
//   - Default ports are omitted (e.g., :80 for http, :443 for https)
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Idempotent: Canonicalize(Canonicalize(url)) == Canonicalize(url)
//   - Context-free: does not depend on crawl history
func Canonicalize(sourceUrl url.URL) url.URL {
	// Create a copy to avoid mutating the original
	canonical := sourceUrl

	// Lowercase scheme and host
	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	// Remove default port if present
	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	// Clean the path: remove trailing slashes (except root)
	if len(canonical.Path) > 1 {
		canonical.Path = stripTrailingSlash(canonical.Path)
	}

	// Remove fragment (anchor)
	canonical.Fragment = ""
	canonical.RawFragment = ""

	// Remove query parameters
	canonical.RawQuery = ""
	canonical.ForceQuery = false

	return canonical
}

// sessionParamNames lists query keys known to carry per-visit session state
// rather than addressable content identity.
var sessionParamNames = map[string]bool{
	"sessionid":    true,
	"phpsessid":    true,
	"jsessionid":   true,
	"sid":          true,
	"aspsessionid": true,
}

// Normalize produces the canonical form used for frontier dedup and
// citation-edge keys. It agrees with Canonicalize on scheme, host, default
// port, and fragment, but differs on the query string: instead of dropping
// it, Normalize strips session-id-like parameters and utm_* tracking
// parameters, then sorts the remaining keys so that two URLs differing only
// in query-parameter order or session noise normalize to the same string.
//
// Properties mirror Canonicalize: pure, deterministic, idempotent.
func Normalize(sourceURL url.URL) url.URL {
	normalized := sourceURL

	normalized.Scheme = lowerASCII(normalized.Scheme)
	normalized.Host = lowerASCII(normalized.Host)

	if host, port := normalized.Hostname(), normalized.Port(); port != "" {
		if (normalized.Scheme == "http" && port == "80") ||
			(normalized.Scheme == "https" && port == "443") {
			normalized.Host = host
		}
	}

	if len(normalized.Path) > 1 {
		normalized.Path = stripTrailingSlash(normalized.Path)
	}

	normalized.Fragment = ""
	normalized.RawFragment = ""

	if normalized.RawQuery != "" {
		values := normalized.Query()
		for key := range values {
			lower := strings.ToLower(key)
			if sessionParamNames[lower] || strings.HasPrefix(lower, "utm_") {
				values.Del(key)
			}
		}
		normalized.RawQuery = encodeSortedQuery(values)
	}

	return normalized
}

// encodeSortedQuery behaves like url.Values.Encode but is kept local so the
// key order is explicit and the function can be unit-tested on its own.
func encodeSortedQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vs := values[k]
		sort.Strings(vs)
		for _, v := range vs {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// lowerASCII converts ASCII characters to lowercase without allocating.
// This is faster than strings.ToLower for ASCII-only strings.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes trailing slashes from a path.
func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
