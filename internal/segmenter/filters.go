package segmenter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"legalrag/internal/domain"
)

// MinBodyRunes is the shortest article body kept. Shorter bodies are
// usually table-of-contents entries or truncated copy-paste.
const MinBodyRunes = 50

// RepealMarkers are the words that flag a repealed article.
var RepealMarkers = []string{"derogado", "abrogado"}

// Filter accepts or rejects a candidate. A rejecting filter returns a short reason.
type Filter func(c domain.Candidate) (ok bool, reason string)

// DefaultFilters returns the length gate followed by the repeal check.
func DefaultFilters() []Filter {
	return []Filter{
		MinBodyLength(MinBodyRunes),
		RejectRepealed(RepealMarkers...),
	}
}

// MinBodyLength rejects bodies shorter than n characters.
func MinBodyLength(n int) Filter {
	reason := fmt.Sprintf("body shorter than %d characters", n)
	return func(c domain.Candidate) (bool, string) {
		if utf8.RuneCountInString(c.Body) < n {
			return false, reason
		}
		return true, ""
	}
}

// RejectRepealed rejects bodies containing any of markers, ignoring case.
func RejectRepealed(markers ...string) Filter {
	lowered := make([]string, len(markers))
	for i, m := range markers {
		lowered[i] = strings.ToLower(m)
	}
	return func(c domain.Candidate) (bool, string) {
		body := strings.ToLower(c.Body)
		for _, m := range lowered {
			if strings.Contains(body, m) {
				return false, "repealed (" + m + ")"
			}
		}
		return true, ""
	}
}
