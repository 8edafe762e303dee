package bundle

import (
	"regexp"
	"strings"
)

// languageSegments is the fixed set of localisation markers that
// extract_by_pattern strips when exclude_languages is requested, each
// matched case-insensitively as both a slash-delimited path segment
// and a dotted file-name segment.
var languageSegments = []string{
	"french", "german", "japanese", "korean", "portuguese",
	"russian", "spanish", "thai", "traditional chinese", "simplified chinese",
}

var languageExclusionPatterns = buildLanguageExclusionPatterns()

func buildLanguageExclusionPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(languageSegments)*2)
	for _, seg := range languageSegments {
		quoted := regexp.QuoteMeta(seg)
		patterns = append(patterns,
			regexp.MustCompile(`(?i)/`+quoted+`/`),
			regexp.MustCompile(`(?i)\.`+quoted+`\.`),
		)
	}
	return patterns
}

// isLanguageExcluded reports whether path matches any of the
// language-exclusion patterns.
func isLanguageExcluded(path string) bool {
	lower := strings.ToLower(path)
	for _, re := range languageExclusionPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}
