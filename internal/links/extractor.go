package links

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is the transient per-crawl record handed to the persistence layer:
// the normalized target path and the page it was found on.
type Link struct {
	Path        string `json:"path"`
	FoundOnPath string `json:"found_on_path"`
}

// AnchorLink pairs a raw href with its classification.
type AnchorLink struct {
	Href       string
	Classified ClassifiedLink
}

// RobotsDirectives holds the parsed meta robots flags. Both default to false
// when no robots tag is present at all.
type RobotsDirectives struct {
	Index  bool `json:"index"`
	Follow bool `json:"follow"`
}

// ExtractAnchors classifies every <a href> in the document against
// currentDomain, in document order. Anchors without an href attribute are
// skipped. Duplicates are kept; dedup is the store's upsert concern.
func ExtractAnchors(doc *goquery.Document, currentDomain string) []AnchorLink {
	anchors := make([]AnchorLink, 0)
	doc.Find("a").Each(func(i int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}
		anchors = append(anchors, AnchorLink{
			Href:       href,
			Classified: Classify(href, currentDomain),
		})
	})
	return anchors
}

// Extract produces the flat (path, foundOnPath) list for a fetched page.
func Extract(doc *goquery.Document, currentDomain, sourcePagePath string) []Link {
	anchors := ExtractAnchors(doc, currentDomain)
	out := make([]Link, 0, len(anchors))
	for _, a := range anchors {
		out = append(out, Link{
			Path:        a.Classified.NormalizedLink,
			FoundOnPath: sourcePagePath,
		})
	}
	return out
}

// ExtractRobots reads the first <meta name="robots"> tag. With a tag present
// both directives default to true and only an explicit noindex/nofollow
// flips them off. Without one, both stay false.
func ExtractRobots(doc *goquery.Document) RobotsDirectives {
	directives := RobotsDirectives{}

	doc.Find("meta[name='robots']").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		content, _ := sel.Attr("content")
		directives.Index = true
		directives.Follow = true
		for _, directive := range strings.Split(content, ",") {
			switch strings.TrimSpace(strings.ToLower(directive)) {
			case "noindex":
				directives.Index = false
			case "nofollow":
				directives.Follow = false
			}
		}
		return false
	})

	return directives
}
