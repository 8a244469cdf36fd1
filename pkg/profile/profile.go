package profile

import (
	"sync"
	"time"

	"github.com/tiago918/app-chamadas/pkg/event"
)

// Activity is one observation recorded into a sender profile. Content
// stats are precomputed by the caller so the profiler never re-scans
// message bodies.
type Activity struct {
	Kind      event.Kind
	Timestamp time.Time
	Duration  time.Duration
	CallDir   event.CallDirection
	MsgDir    event.MessageDirection
	Content   event.ContentStats
}

// CallPattern aggregates call behavior with running sums only.
type CallPattern struct {
	Total       int
	Missed      int
	Short       int
	DurationSum time.Duration
}

// SMSPattern aggregates message behavior.
type SMSPattern struct {
	Total     int
	WithURL   int
	CapsSum   float64
	LengthSum int
}

// TimePattern aggregates temporal behavior. The recent ring bounds the
// interval history used for automation detection.
type TimePattern struct {
	OffHours  int
	HourCount [24]int
	recent    *timestampRing
}

// Profile is the evolving behavioral record of one sender. All mutation
// happens under mu so concurrent events for the same sender serialize
// while different senders proceed independently.
type Profile struct {
	mu sync.Mutex

	Sender            string
	FirstSeen         time.Time
	LastSeen          time.Time
	TotalInteractions int

	Calls    CallPattern
	SMS      SMSPattern
	Times    TimePattern
	Keywords *topKCounter

	SuspicionScore float64
}

// timestampRing is a fixed-capacity ring of observation timestamps.
type timestampRing struct {
	buf   []time.Time
	start int
	count int
}

func newTimestampRing(capacity int) *timestampRing {
	if capacity < 2 {
		capacity = 2
	}
	return &timestampRing{buf: make([]time.Time, capacity)}
}

func (r *timestampRing) push(ts time.Time) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = ts
		r.count++
		return
	}
	r.buf[r.start] = ts
	r.start = (r.start + 1) % len(r.buf)
}

// trimBefore drops entries older than cutoff from the front of the ring.
func (r *timestampRing) trimBefore(cutoff time.Time) {
	for r.count > 0 && r.buf[r.start].Before(cutoff) {
		r.start = (r.start + 1) % len(r.buf)
		r.count--
	}
}

// timestamps returns the buffered entries in insertion order.
func (r *timestampRing) timestamps() []time.Time {
	out := make([]time.Time, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}

// topKCounter is a frequency map bounded to k entries. When full, adding a
// new key evicts the current minimum so the map tracks the most common
// keywords without growing.
type topKCounter struct {
	k      int
	counts map[string]int
}

func newTopKCounter(k int) *topKCounter {
	if k < 1 {
		k = 1
	}
	return &topKCounter{k: k, counts: make(map[string]int, k)}
}

func (t *topKCounter) add(key string) {
	if _, ok := t.counts[key]; ok {
		t.counts[key]++
		return
	}
	if len(t.counts) >= t.k {
		minKey, minCount := "", int(^uint(0)>>1)
		for k, c := range t.counts {
			if c < minCount {
				minKey, minCount = k, c
			}
		}
		delete(t.counts, minKey)
	}
	t.counts[key] = 1
}

func (t *topKCounter) total() int {
	sum := 0
	for _, c := range t.counts {
		sum += c
	}
	return sum
}

func (t *topKCounter) len() int {
	return len(t.counts)
}
