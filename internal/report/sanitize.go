package report

import (
	"net/url"
	"regexp"
	"strings"
	"sync"
)

var (
	reBearer   = regexp.MustCompile(`(?i)\b(bearer\s+)([a-z0-9\-\._~\+\/]+=*)`)
	reApiKeyKV = regexp.MustCompile(`(?i)\b(api[_-]?key|access[_-]?token|token|secret|authorization|password)\s*[:=]\s*([^\s,;]+)`)
	reUserinfo = regexp.MustCompile(`(?i)\b(https?://)[^/\s:@]+(:[^/\s@]*)?@`)

	customMu  sync.RWMutex
	customRes []*regexp.Regexp
)

// SetRedactionPatterns installs the configured extra patterns; matches are
// replaced wholesale.
func SetRedactionPatterns(res []*regexp.Regexp) {
	customMu.Lock()
	customRes = append([]*regexp.Regexp(nil), res...)
	customMu.Unlock()
}

// SanitizeText masks credentials that may leak into error messages.
func SanitizeText(s string) string {
	out := reBearer.ReplaceAllString(s, "${1}<redacted>")
	out = reApiKeyKV.ReplaceAllString(out, "${1}=<redacted>")
	out = reUserinfo.ReplaceAllString(out, "${1}<redacted>@")

	customMu.RLock()
	defer customMu.RUnlock()
	for _, re := range customRes {
		out = re.ReplaceAllString(out, "<redacted>")
	}
	return out
}

// SanitizeURL drops userinfo and masks secret-looking query values, keeping
// version query parameters such as ?ver= intact.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return SanitizeText(raw)
	}
	if u.User != nil {
		u.User = url.User("redacted")
	}

	q := u.Query()
	changed := false
	for k := range q {
		kl := strings.ToLower(k)
		if strings.Contains(kl, "token") ||
			strings.Contains(kl, "key") ||
			strings.Contains(kl, "secret") ||
			strings.Contains(kl, "auth") ||
			strings.Contains(kl, "session") ||
			strings.Contains(kl, "pass") {
			q.Set(k, "<redacted>")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}

	customMu.RLock()
	defer customMu.RUnlock()
	out := u.String()
	for _, re := range customRes {
		out = re.ReplaceAllString(out, "<redacted>")
	}
	return out
}
