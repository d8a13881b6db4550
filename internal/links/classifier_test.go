package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		href          string
		currentDomain string
		want          ClassifiedLink
	}{
		{
			name:          "root relative",
			href:          "/about",
			currentDomain: "example.com",
			want: ClassifiedLink{
				NormalizedLink: "example.com/about",
				LinkDomain:     "example.com",
				IsInternalPage: true,
			},
		},
		{
			name:          "absolute internal trips double slash warning",
			href:          "https://example.com/page",
			currentDomain: "example.com",
			want: ClassifiedLink{
				NormalizedLink:     "example.com/page",
				LinkDomain:         "example.com",
				IsInternalPage:     true,
				WarningDoubleSlash: true,
			},
		},
		{
			name:          "absolute external",
			href:          "https://other.org/page",
			currentDomain: "example.com",
			want: ClassifiedLink{
				NormalizedLink:     "other.org/page",
				LinkDomain:         "other.org",
				IsExternal:         true,
				WarningDoubleSlash: true,
			},
		},
		{
			name:          "www subdomain detected",
			href:          "http://www.example.com/contact",
			currentDomain: "example.com",
			want: ClassifiedLink{
				NormalizedLink:     "www.example.com/contact",
				Subdomain:          "www",
				LinkDomain:         "example.com",
				IsInternalPage:     true,
				WarningDoubleSlash: true,
			},
		},
		{
			name:          "mailto never internal",
			href:          "mailto:hello@gmail.com",
			currentDomain: "example.com",
			want: ClassifiedLink{
				NormalizedLink: "mailto:hello@gmail.com",
				LinkDomain:     "mailto:hello@gmail.com",
				IsMailto:       true,
				IsExternal:     true,
			},
		},
		{
			// A mailto on the same domain still suffix-matches as
			// non-external, but the mailto flag keeps it off the page list.
			name:          "mailto on own domain",
			href:          "mailto:hello@example.com",
			currentDomain: "example.com",
			want: ClassifiedLink{
				NormalizedLink: "mailto:hello@example.com",
				LinkDomain:     "mailto:hello@example.com",
				IsMailto:       true,
			},
		},
		{
			name:          "tel never internal",
			href:          "tel:+123456",
			currentDomain: "example.com",
			want: ClassifiedLink{
				NormalizedLink: "tel:+123456",
				LinkDomain:     "tel:+123456",
				IsTel:          true,
				IsExternal:     true,
			},
		},
		{
			name:          "pure anchor",
			href:          "#top",
			currentDomain: "example.com",
			want: ClassifiedLink{
				NormalizedLink: "#top",
				LinkDomain:     "",
				IsAnchor:       true,
			},
		},
		{
			name:          "empty href classified internal by default",
			href:          "",
			currentDomain: "example.com",
			want: ClassifiedLink{
				NormalizedLink: "",
				LinkDomain:     "",
				IsInternalPage: true,
			},
		},
		{
			// Suffix match, not exact match: an unrelated domain sharing the
			// current domain as a suffix counts as internal. Persisted
			// classifications depend on this, so the behavior is pinned.
			name:          "suffix sharing domain counts as internal",
			href:          "https://notexample.com/page",
			currentDomain: "example.com",
			want: ClassifiedLink{
				NormalizedLink:     "notexample.com/page",
				LinkDomain:         "notexample.com",
				IsInternalPage:     true,
				WarningDoubleSlash: true,
			},
		},
		{
			name:          "subdomain of current domain is internal",
			href:          "https://blog.example.com/post",
			currentDomain: "example.com",
			want: ClassifiedLink{
				NormalizedLink:     "blog.example.com/post",
				LinkDomain:         "blog.example.com",
				IsInternalPage:     true,
				WarningDoubleSlash: true,
			},
		},
		{
			name:          "current domain with protocol and www is normalized",
			href:          "/pricing",
			currentDomain: "https://www.example.com",
			want: ClassifiedLink{
				NormalizedLink: "example.com/pricing",
				LinkDomain:     "example.com",
				IsInternalPage: true,
			},
		},
		{
			name:          "relative link with embedded double slash",
			href:          "/blog//post-1",
			currentDomain: "example.com",
			want: ClassifiedLink{
				NormalizedLink:     "example.com/blog//post-1",
				LinkDomain:         "example.com",
				IsInternalPage:     true,
				WarningDoubleSlash: true,
			},
		},
		{
			name:          "anchor on a page path",
			href:          "/docs#install",
			currentDomain: "example.com",
			want: ClassifiedLink{
				NormalizedLink: "example.com/docs#install",
				LinkDomain:     "example.com",
				IsAnchor:       true,
			},
		},
		{
			name:          "empty current domain never external",
			href:          "https://other.org",
			currentDomain: "",
			want: ClassifiedLink{
				NormalizedLink:     "other.org",
				LinkDomain:         "other.org",
				IsInternalPage:     true,
				WarningDoubleSlash: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.href, tt.currentDomain)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyInternalPageInvariant(t *testing.T) {
	hrefs := []string{
		"", "/a", "#x", "mailto:a@b.c", "tel:+1", "https://ext.org/p",
		"https://example.com/p", "/a#b", "relative/path",
	}
	for _, href := range hrefs {
		c := Classify(href, "example.com")
		assert.Equal(t,
			!c.IsExternal && !c.IsMailto && !c.IsAnchor && !c.IsTel,
			c.IsInternalPage,
			"invariant violated for href %q", href)
	}
}

func TestRootDomain(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"example.com", "example.com"},
		{"https://example.com", "example.com"},
		{"http://www.example.com/path", "example.com"},
		{"www.example.com#frag", "example.com"},
		{"https://", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RootDomain(tt.raw), "raw=%q", tt.raw)
	}
}
