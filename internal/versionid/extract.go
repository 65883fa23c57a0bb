package versionid

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const DefaultProduct = "WordPress"

var (
	generatorAttrRegex = regexp.MustCompile(`(?i)generator\s*=\s*["']([^"']+)["']`)
	feedVersionRegex   = regexp.MustCompile(`[?&]v=(\d+(?:\.\d+)+)`)
	dottedRegex        = regexp.MustCompile(`^\d+(?:\.\d+)+$`)

	// query keys used for cache busting on enqueued scripts and styles
	assetVersionKeys = []string{"ver", "version"}
)

// Extractor scans page bodies for version strings of one product.
type Extractor struct {
	product     string
	declaration *regexp.Regexp
}

func NewExtractor(product string) *Extractor {
	product = strings.TrimSpace(product)
	if product == "" {
		product = DefaultProduct
	}
	return &Extractor{
		product:     product,
		declaration: regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(product) + `[\s/]+v?(\d+(?:\.\d+)+)\b`),
	}
}

func (e *Extractor) Product() string { return e.product }

// VersionsInPage returns the self-declared version when the page carries a
// generator marker for the product. Otherwise it returns every version found
// in asset cache-busting parameters, which is loose evidence.
func (e *Extractor) VersionsInPage(content []byte) VersionSet {
	z := html.NewTokenizer(bytes.NewReader(content))
	assets := VersionSet{}
	inGenerator := false

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return assets

		case html.CommentToken:
			if v, ok := e.generatorInText(string(z.Text())); ok {
				return NewVersionSet(v)
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "generator" {
				inGenerator = tt == html.StartTagToken
			}
			if tok.DataAtom == atom.Meta && strings.EqualFold(attr(tok, "name"), "generator") {
				if v, ok := e.declared(attr(tok, "content")); ok {
					return NewVersionSet(v)
				}
			}
			for _, a := range tok.Attr {
				switch strings.ToLower(a.Key) {
				case "src", "href":
					assets.Add(assetVersions(a.Val)...)
				case "generator":
					if v, ok := e.declared(a.Val); ok {
						return NewVersionSet(v)
					}
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "generator" {
				inGenerator = false
			}

		case html.TextToken:
			if inGenerator {
				if v, ok := e.feedGenerator(string(z.Text())); ok {
					return NewVersionSet(v)
				}
			}
		}
	}
}

// VersionsInPages unions the per-page results.
func (e *Extractor) VersionsInPages(contents [][]byte) VersionSet {
	out := VersionSet{}
	for _, c := range contents {
		for v := range e.VersionsInPage(c) {
			out[v] = struct{}{}
		}
	}
	return out
}

func (e *Extractor) declared(s string) (string, bool) {
	m := e.declaration.FindStringSubmatch(s)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// generatorInText handles markers like <!-- generator="WordPress/4.7.5" -->
// found in OPML and RSS exports.
func (e *Extractor) generatorInText(s string) (string, bool) {
	for _, m := range generatorAttrRegex.FindAllStringSubmatch(s, -1) {
		if v, ok := e.declared(m[1]); ok {
			return v, true
		}
	}
	return "", false
}

// feedGenerator handles <generator>https://wordpress.org/?v=4.7.5</generator>.
func (e *Extractor) feedGenerator(s string) (string, bool) {
	if !strings.Contains(strings.ToLower(s), strings.ToLower(e.product)) {
		return "", false
	}
	m := feedVersionRegex.FindStringSubmatch(s)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

func assetVersions(raw string) []string {
	if !strings.Contains(raw, "?") {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	q := u.Query()
	var out []string
	for _, key := range assetVersionKeys {
		for _, v := range q[key] {
			if dottedRegex.MatchString(v) {
				out = append(out, v)
			}
		}
	}
	return out
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
