package config

import (
	"fmt"
	"regexp"
	"strings"
)

// CompileRedactionPatterns compiles the `redaction_patterns` list:
//
//	redaction_patterns:
//	  - '(?i)internal-[a-z0-9]+'
//
// Blank entries are skipped.
func CompileRedactionPatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redaction pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
