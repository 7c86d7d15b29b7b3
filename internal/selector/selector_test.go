package selector

import (
	"errors"
	"testing"

	"subseek/internal/services"
)

func TestSelectPrefersHighestRatingWithinPriorityLanguage(t *testing.T) {
	candidates := []Candidate{
		{Language: "en", Rating: 3, DownloadCount: 100},
		{Language: "en", Rating: 5, DownloadCount: 10},
		{Language: "es", Rating: 5, DownloadCount: 1000},
	}
	best, err := Select(candidates, []string{"en"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if best.Language != "en" || best.Rating != 5 || best.DownloadCount != 10 {
		t.Fatalf("expected en/5/10, got %+v", best)
	}
}

func TestSelectUsesEarliestNonEmptyPartition(t *testing.T) {
	candidates := []Candidate{
		{Language: "fr", Rating: 2, DownloadCount: 5},
		{Language: "es", Rating: 5, DownloadCount: 50},
	}
	best, err := Select(candidates, []string{"en", "fr", "es"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if best.Language != "fr" {
		t.Fatalf("expected fr partition to win despite lower rating, got %+v", best)
	}
}

func TestSelectBreaksRatingTiesByDownloads(t *testing.T) {
	candidates := []Candidate{
		{Language: "en", Rating: 4, DownloadCount: 10, Uploader: "a"},
		{Language: "en", Rating: 4, DownloadCount: 90, Uploader: "b"},
	}
	best, err := Select(candidates, []string{"en"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if best.Uploader != "b" {
		t.Fatalf("expected download count tiebreak, got %+v", best)
	}
}

func TestSelectExactTieKeepsFirstEncountered(t *testing.T) {
	candidates := []Candidate{
		{Language: "en", Rating: 4, DownloadCount: 10, Uploader: "first"},
		{Language: "en", Rating: 4, DownloadCount: 10, Uploader: "second"},
	}
	best, err := Select(candidates, []string{"en"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if best.Uploader != "first" {
		t.Fatalf("expected stable first-encountered tiebreak, got %+v", best)
	}
}

func TestSelectFailsWhenNoLanguageMatches(t *testing.T) {
	candidates := []Candidate{
		{Language: "es", Rating: 5, DownloadCount: 1000},
		{Language: "es", Rating: 4, DownloadCount: 10},
	}
	_, err := Select(candidates, []string{"en"})
	if err == nil {
		t.Fatal("expected error for unmatched languages")
	}
	if !errors.Is(err, services.ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestSelectIsCaseInsensitiveOnLanguage(t *testing.T) {
	candidates := []Candidate{{Language: "EN", Rating: 3, DownloadCount: 1}}
	best, err := Select(candidates, []string{"en"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if best.Language != "EN" {
		t.Fatalf("unexpected candidate %+v", best)
	}
}
