package links

import "strings"

// ClassifiedLink is the result of classifying a single href against the
// domain of the page it was found on.
type ClassifiedLink struct {
	NormalizedLink     string `json:"normalized_link"`
	Subdomain          string `json:"subdomain"`
	IsAnchor           bool   `json:"is_anchor"`
	IsMailto           bool   `json:"is_mailto"`
	IsTel              bool   `json:"is_tel"`
	IsExternal         bool   `json:"is_external"`
	IsInternalPage     bool   `json:"is_internal_page"`
	WarningDoubleSlash bool   `json:"warning_double_slash"`
	LinkDomain         string `json:"link_domain"`
}

// Classify classifies a raw href against the current page's domain. It is a
// pure function: every input produces a result, no I/O, no shared state.
//
// Root-relative hrefs are resolved against currentDomain verbatim; absolute
// hrefs only have their protocol stripped. External detection is a suffix
// match on the extracted link domain, so "notexample.com" counts as internal
// against "example.com" — existing persisted classifications depend on that,
// so it stays.
func Classify(href, currentDomain string) ClassifiedLink {
	current := strings.TrimPrefix(stripProtocol(currentDomain), "www.")

	var normalized string
	if strings.HasPrefix(href, "/") {
		normalized = current + href
	} else {
		normalized = stripProtocol(href)
	}

	subdomain := ""
	if strings.HasPrefix(normalized, "www.") {
		subdomain = "www"
	}

	linkDomain := domainOf(strings.TrimPrefix(normalized, "www."))

	isAnchor := strings.Contains(href, "#")
	isMailto := strings.Contains(href, "mailto:")
	isTel := strings.Contains(href, "tel:")
	isExternal := current != "" && linkDomain != "" && !strings.HasSuffix(linkDomain, current)

	return ClassifiedLink{
		NormalizedLink: normalized,
		Subdomain:      subdomain,
		IsAnchor:       isAnchor,
		IsMailto:       isMailto,
		IsTel:          isTel,
		IsExternal:     isExternal,
		IsInternalPage: !isExternal && !isMailto && !isAnchor && !isTel,
		// Literal substring check on the raw href. An https:// absolute link
		// trips this too; the flag exists to catch malformed relative links
		// produced by templating bugs and is intentionally crude.
		WarningDoubleSlash: strings.Contains(href, "//"),
		LinkDomain:         linkDomain,
	}
}

// RootDomain reduces a raw domain or URL string to its canonical root form:
// protocol stripped, leading "www." stripped, anything past the first "/" or
// "#" dropped. Returns "" when nothing usable remains.
func RootDomain(raw string) string {
	return domainOf(strings.TrimPrefix(stripProtocol(raw), "www."))
}

func stripProtocol(s string) string {
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return s
}

// domainOf returns the substring up to the first "/" or "#".
func domainOf(s string) string {
	if i := strings.IndexAny(s, "/#"); i >= 0 {
		return s[:i]
	}
	return s
}
