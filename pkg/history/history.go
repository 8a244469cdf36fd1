// Package history keeps a bounded in-memory log of flagged detections.
package history

import (
	"sync"

	"github.com/tiago918/app-chamadas/pkg/detector"
)

// Log is a fixed-capacity ring of detection results. When full, the oldest
// entry is overwritten. It satisfies detector.HistorySink.
type Log struct {
	mu       sync.RWMutex
	entries  []*detector.Result
	start    int
	count    int
	capacity int
}

// NewLog creates a log holding at most capacity results.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = 100
	}
	return &Log{
		entries:  make([]*detector.Result, capacity),
		capacity: capacity,
	}
}

// Append records one result, evicting the oldest when full.
func (l *Log) Append(result *detector.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count < l.capacity {
		l.entries[(l.start+l.count)%l.capacity] = result
		l.count++
		return
	}
	l.entries[l.start] = result
	l.start = (l.start + 1) % l.capacity
}

// Recent returns up to n results, newest first.
func (l *Log) Recent(n int) []*detector.Result {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > l.count {
		n = l.count
	}
	out := make([]*detector.Result, 0, n)
	for i := 0; i < n; i++ {
		idx := (l.start + l.count - 1 - i) % l.capacity
		out = append(out, l.entries[idx])
	}
	return out
}

// BySender returns every stored result for one sender, newest first.
func (l *Log) BySender(sender string) []*detector.Result {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*detector.Result
	for i := l.count - 1; i >= 0; i-- {
		entry := l.entries[(l.start+i)%l.capacity]
		if entry.Sender == sender {
			out = append(out, entry)
		}
	}
	return out
}

// Len returns the number of stored results.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}
