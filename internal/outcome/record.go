package outcome

import (
	"time"

	"subseek/internal/catalog"
	"subseek/internal/selector"
)

// Record is the terminal result of processing one item.
type Record struct {
	Item      catalog.Item
	Succeeded bool
	// ErrorKind classifies a failure ("ElementNotFound", "NoResultsFound",
	// "DownloadTimeout", ...). Empty on success.
	ErrorKind string
	// Selected is the candidate that was downloaded. Nil on failure.
	Selected  *selector.Candidate
	Timestamp time.Time
}
