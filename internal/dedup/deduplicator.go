// Package dedup suppresses repeat anomaly alerts.
//
// The deduplicator remembers the most recently raised anomalies (bounded
// ring, default 100) and treats a new candidate as a repeat when a retained
// anomaly has the same type, the same affected-parameter set, and a
// timestamp within the decay window (default one hour). Repeats are
// suppressed; everything else is remembered and passed through.
package dedup

import (
	"sort"
	"sync"
	"time"

	"github.com/optwatch/optwatch/internal/anomaly"
)

const (
	// DefaultMaxRecent bounds the ring of remembered anomalies.
	DefaultMaxRecent = 100
	// DefaultWindow is the decay window within which a same-type,
	// same-parameters anomaly counts as a repeat.
	DefaultWindow = time.Hour
)

// Deduplicator decides whether a newly detected anomaly repeats one already
// raised. Safe for concurrent use.
type Deduplicator struct {
	mu     sync.Mutex
	recent []anomaly.Anomaly
	max    int
	window time.Duration
}

// New creates a deduplicator. Non-positive arguments fall back to the
// defaults.
func New(maxRecent int, window time.Duration) *Deduplicator {
	if maxRecent <= 0 {
		maxRecent = DefaultMaxRecent
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Deduplicator{
		recent: make([]anomaly.Anomaly, 0, maxRecent),
		max:    maxRecent,
		window: window,
	}
}

// IsDuplicate reports whether the candidate repeats a retained anomaly.
// It does not record the candidate.
func (d *Deduplicator) IsDuplicate(candidate anomaly.Anomaly) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isDuplicateLocked(candidate)
}

// Filter returns the candidates that are not repeats and remembers them, in
// order, as newly raised. Duplicates within the batch itself are also
// suppressed: the first occurrence wins.
func (d *Deduplicator) Filter(candidates []anomaly.Anomaly) []anomaly.Anomaly {
	d.mu.Lock()
	defer d.mu.Unlock()

	var fresh []anomaly.Anomaly
	for _, c := range candidates {
		if d.isDuplicateLocked(c) {
			continue
		}
		fresh = append(fresh, c)
		d.recent = append(d.recent, c)
		if len(d.recent) > d.max {
			copy(d.recent, d.recent[len(d.recent)-d.max:])
			d.recent = d.recent[:d.max]
		}
	}
	return fresh
}

// Recent returns a copy of the retained anomalies, oldest first.
func (d *Deduplicator) Recent() []anomaly.Anomaly {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := make([]anomaly.Anomaly, len(d.recent))
	copy(result, d.recent)
	return result
}

func (d *Deduplicator) isDuplicateLocked(candidate anomaly.Anomaly) bool {
	for _, r := range d.recent {
		if r.Type != candidate.Type {
			continue
		}
		if !sameParameterSet(r.AffectedParameters, candidate.AffectedParameters) {
			continue
		}
		delta := candidate.Timestamp.Sub(r.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta <= d.window {
			return true
		}
	}
	return false
}

// sameParameterSet compares affected parameters as unordered sets.
func sameParameterSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
