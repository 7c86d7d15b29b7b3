package outcome

import "sync"

// Log accumulates records for one run. Appends are serialized so
// concurrent item workers can share a single log; records are never
// mutated or removed once appended.
type Log struct {
	mu      sync.Mutex
	records []Record
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds one record.
func (l *Log) Append(rec Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// Records returns a copy of all records in append order.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Successes returns the records for items that downloaded a subtitle.
func (l *Log) Successes() []Record {
	return l.filter(true)
}

// Failures returns the records for items that did not.
func (l *Log) Failures() []Record {
	return l.filter(false)
}

// Len reports the number of records.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

func (l *Log) filter(succeeded bool) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Record
	for _, rec := range l.records {
		if rec.Succeeded == succeeded {
			out = append(out, rec)
		}
	}
	return out
}
