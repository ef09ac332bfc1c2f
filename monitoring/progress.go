package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks how many requests of a run have completed and how many
// are still in flight.
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// Update sets both counters at once. Counters never go down, so a stale
// snapshot with fewer finished requests is ignored.
func (b *ProgressBar) Update(finished, inProgress uint64) {
	b.Lock()
	defer b.Unlock()

	if finished < b.Finished {
		return
	}

	b.Finished = finished
	b.InProgress = inProgress
}

// Remaining returns the number of requests not yet finished.
func (b *ProgressBar) Remaining() uint64 {
	b.Lock()
	defer b.Unlock()

	if b.Finished > b.Total {
		return 0
	}

	return b.Total - b.Finished
}
