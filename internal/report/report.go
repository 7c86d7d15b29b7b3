// Package report renders the outcome log into the plain-text run report.
// Rendering is a pure function of the log and the supplied generation
// timestamp, so equal inputs always produce byte-identical output. The
// report is the authoritative record of a run; console logging is
// advisory only.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"subseek/internal/outcome"
)

const (
	emptyReport   = "No subtitles were processed."
	timeLayout    = "2006-01-02 15:04:05"
	heavyRule     = "================================================================================"
	lightRule     = "--------------------------------------------------------------------------------"
	reportTitle   = "SUBTITLE DOWNLOAD REPORT"
	summaryTitle  = "SUMMARY STATISTICS"
	successHeader = "SUCCESSFUL DOWNLOADS"
	failureHeader = "FAILED DOWNLOADS"
)

// Summary is the aggregate view of a log, recomputable at any time.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	// AverageRating is the mean rating of successes. Zero when there are
	// no successes.
	AverageRating       float64
	SuccessesByLanguage map[string]int
	FailuresByKind      map[string]int
}

// Summarize computes the aggregate view of a log.
func Summarize(log *outcome.Log) Summary {
	records := log.Records()
	summary := Summary{
		Total:               len(records),
		SuccessesByLanguage: make(map[string]int),
		FailuresByKind:      make(map[string]int),
	}
	ratingSum := 0.0
	for _, rec := range records {
		if rec.Succeeded {
			summary.Succeeded++
			if rec.Selected != nil {
				ratingSum += rec.Selected.Rating
				summary.SuccessesByLanguage[rec.Selected.Language]++
			}
		} else {
			summary.Failed++
			summary.FailuresByKind[rec.ErrorKind]++
		}
	}
	if summary.Succeeded > 0 {
		summary.AverageRating = ratingSum / float64(summary.Succeeded)
	}
	return summary
}

// Render produces the full report text. Successes and failures are
// listed in processing order; generatedAt is the only timestamp not
// taken from the log itself.
func Render(log *outcome.Log, generatedAt time.Time) string {
	records := log.Records()
	if len(records) == 0 {
		return emptyReport
	}
	summary := Summarize(log)
	successes := log.Successes()
	failures := log.Failures()

	lines := []string{
		"\n" + heavyRule,
		reportTitle,
		heavyRule,
		fmt.Sprintf("Total processed: %d", summary.Total),
		fmt.Sprintf("Successful: %d", summary.Succeeded),
		fmt.Sprintf("Failed: %d", summary.Failed),
		fmt.Sprintf("Generated: %s", generatedAt.Format(timeLayout)),
		heavyRule,
		"",
	}

	if len(successes) > 0 {
		lines = append(lines,
			fmt.Sprintf("\n%s (%d)", successHeader, len(successes)),
			lightRule)
		for _, rec := range successes {
			lines = append(lines,
				"\n"+rec.Item.Title,
				fmt.Sprintf("  Type: %s", rec.Item.MediaType),
				fmt.Sprintf("  Rating: %s", ratingText(rec)),
				fmt.Sprintf("  Timestamp: %s", rec.Timestamp.Format(timeLayout)))
		}
	}

	if len(failures) > 0 {
		lines = append(lines,
			fmt.Sprintf("\n\n%s (%d)", failureHeader, len(failures)),
			lightRule)
		for _, rec := range failures {
			lines = append(lines,
				"\n"+rec.Item.Title,
				fmt.Sprintf("  Type: %s", rec.Item.MediaType),
				fmt.Sprintf("  Error: %s", rec.ErrorKind),
				fmt.Sprintf("  URL: %s", rec.Item.DetailURL))
		}
	}

	lines = append(lines,
		fmt.Sprintf("\n\n%s", summaryTitle),
		lightRule)
	if summary.Succeeded > 0 {
		lines = append(lines, fmt.Sprintf("Average rating: %.1f", summary.AverageRating))
		lines = append(lines, "Successes by language:")
		for _, code := range sortedKeys(summary.SuccessesByLanguage) {
			lines = append(lines, fmt.Sprintf("  %s: %d", code, summary.SuccessesByLanguage[code]))
		}
	}
	if summary.Failed > 0 {
		lines = append(lines, "Failures by error:")
		for _, kind := range sortedKeys(summary.FailuresByKind) {
			lines = append(lines, fmt.Sprintf("  %s: %d", kind, summary.FailuresByKind[kind]))
		}
	}

	lines = append(lines, "\n"+heavyRule)
	return strings.Join(lines, "\n")
}

func ratingText(rec outcome.Record) string {
	if rec.Selected == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f stars", rec.Selected.Rating)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
