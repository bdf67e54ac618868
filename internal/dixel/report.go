package dixel

import (
	"fmt"
	"regexp"
	"strings"
)

// Report holds the narrative text attached to a study.
type Report struct {
	Text string
}

var radcatPattern = regexp.MustCompile(`(?i)radcat\s*:?\s*([0-9])`)

// Radcat extracts the radiology categorization score from the report text.
// Reports without a RADCAT marker return an error; callers are expected to
// treat an empty category as valid.
func (r *Report) Radcat() (string, error) {
	if r == nil || strings.TrimSpace(r.Text) == "" {
		return "", fmt.Errorf("report has no text to categorize")
	}
	match := radcatPattern.FindStringSubmatch(r.Text)
	if match == nil {
		return "", fmt.Errorf("report has no radcat marker")
	}
	return match[1], nil
}
