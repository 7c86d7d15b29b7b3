package selector

import (
	"sort"
	"strings"

	"subseek/internal/services"
)

// Candidate is one subtitle search result with its rating and popularity
// metadata. Candidates are ephemeral: collected for a single item and
// discarded after selection.
type Candidate struct {
	Language      string
	Rating        float64
	Uploader      string
	DownloadCount int
	ReleaseLabel  string
}

// Select returns the best candidate for the given language priority list.
//
// Candidates are partitioned by language and only the earliest-priority
// non-empty partition is retained; languages outside the priority list are
// excluded entirely. Within the retained partition candidates are ordered by
// rating descending, then download count descending, then first-encountered
// order. Collection order is stable but carries no meaning beyond breaking
// exact ties.
//
// Callers handle the empty-collection case before invoking Select; an input
// whose languages all fall outside the priority list fails with
// services.ErrNoResults.
func Select(candidates []Candidate, languagePriority []string) (Candidate, error) {
	var retained []Candidate
	for _, lang := range languagePriority {
		retained = retained[:0]
		for _, candidate := range candidates {
			if strings.EqualFold(strings.TrimSpace(candidate.Language), strings.TrimSpace(lang)) {
				retained = append(retained, candidate)
			}
		}
		if len(retained) > 0 {
			break
		}
	}
	if len(retained) == 0 {
		return Candidate{}, services.Wrap(services.ErrNoResults, "selector", "select",
			"no candidate matches the requested languages", nil)
	}

	ordered := make([]Candidate, len(retained))
	copy(ordered, retained)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Rating != ordered[j].Rating {
			return ordered[i].Rating > ordered[j].Rating
		}
		return ordered[i].DownloadCount > ordered[j].DownloadCount
	})
	return ordered[0], nil
}
