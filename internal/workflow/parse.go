package workflow

import (
	"context"
	"strconv"
	"strings"

	"subseek/internal/browser"
	"subseek/internal/language"
	"subseek/internal/selector"
)

// Queries evaluated inside one result row. Scoped lookup is CSS only.
const (
	starQuery = `[class*="star"], [class*="rating"]`
)

// Row attributes carrying candidate metadata when the markup provides
// them. Rows without them fall back to the star count and the default
// language.
const (
	attrLanguage  = "data-language"
	attrUploader  = "data-uploader"
	attrDownloads = "data-downloads"
	attrRelease   = "data-release"
)

// parseCandidate reads one result row into a Candidate. The rating is the
// count of filled star elements; a row with no recognizable stars rates
// zero, which still competes on download count. fallbackLanguage applies
// when the row does not declare one.
func parseCandidate(ctx context.Context, sess browser.Session, row browser.Handle, fallbackLanguage string) selector.Candidate {
	cand := selector.Candidate{
		Language: fallbackLanguage,
		Rating:   float64(countFilledStars(ctx, sess, row)),
	}
	if value, ok := sess.Attribute(row, attrLanguage); ok && strings.TrimSpace(value) != "" {
		cand.Language = language.ToISO2(strings.TrimSpace(value))
	}
	if value, ok := sess.Attribute(row, attrUploader); ok {
		cand.Uploader = strings.TrimSpace(value)
	}
	if value, ok := sess.Attribute(row, attrDownloads); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n >= 0 {
			cand.DownloadCount = n
		}
	}
	if value, ok := sess.Attribute(row, attrRelease); ok {
		cand.ReleaseLabel = strings.TrimSpace(value)
	}
	return cand
}

func countFilledStars(ctx context.Context, sess browser.Session, row browser.Handle) int {
	stars, err := sess.FindAllWithin(ctx, row, browser.CSS(starQuery))
	if err != nil {
		return 0
	}
	filled := 0
	for _, star := range stars {
		class, ok := sess.Attribute(star, "class")
		if !ok {
			continue
		}
		class = strings.ToLower(class)
		if strings.Contains(class, "filled") || strings.Contains(class, "full") {
			filled++
		}
	}
	return filled
}
