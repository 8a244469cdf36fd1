package features

import (
	"math"
	"regexp"
	"time"

	"github.com/tiago918/app-chamadas/pkg/event"
)

// Vector maps feature names to values. Every value is normalized to
// roughly [0,1] so the learned scorer can use a single learning rate
// across features.
type Vector map[string]float64

// Extractor derives numeric features from observed call and SMS events.
type Extractor struct {
	keywords []string

	sequentialDigits *regexp.Regexp
}

// NewExtractor creates an extractor scanning content for the given keywords.
func NewExtractor(keywords []string) *Extractor {
	return &Extractor{
		keywords:         keywords,
		sequentialDigits: regexp.MustCompile(`(0123|1234|2345|3456|4567|5678|6789|9876|8765|7654|6543|5432|4321|3210)`),
	}
}

// Extract computes the feature vector for an event. Phone and time features
// are always present; content and call features only when applicable.
func (e *Extractor) Extract(ev event.Event) Vector {
	v := make(Vector)

	digits := event.Digits(ev.Sender)
	v["number_length"] = math.Min(float64(len(digits))/15.0, 1.0)
	v["short_code"] = boolFeature(len(digits) > 0 && len(digits) <= 6)
	v["repeated_digits"] = boolFeature(hasRepeatedRun(digits, 4))
	v["sequential_digits"] = boolFeature(e.sequentialDigits.MatchString(digits))

	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	v["hour_of_day"] = float64(ts.Hour()) / 24.0
	v["weekend"] = boolFeature(ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday)
	v["off_hours"] = boolFeature(ts.Hour() < 8 || ts.Hour() >= 20)

	if ev.Kind == event.KindSMS {
		stats := event.ScanContent(ev.Body, e.keywords)
		v["msg_length"] = math.Min(float64(stats.Length)/160.0, 1.0)
		v["has_url"] = boolFeature(stats.URLCount > 0)
		v["caps_ratio"] = stats.CapsRatio
		v["exclamation_ratio"] = math.Min(float64(stats.ExclamationCount)/5.0, 1.0)
		v["keyword_density"] = keywordDensity(stats)
	}

	if ev.Kind == event.KindCall {
		v["call_duration"] = math.Min(ev.Duration.Seconds()/300.0, 1.0)
		v["missed_call"] = boolFeature(ev.CallDir == event.CallMissed)
	}

	return v
}

// keywordDensity scales matched keyword count against message word count,
// capped at 1.
func keywordDensity(stats event.ContentStats) float64 {
	if stats.Length == 0 || len(stats.Keywords) == 0 {
		return 0
	}
	return math.Min(float64(len(stats.Keywords))/3.0, 1.0)
}

// hasRepeatedRun reports whether s contains n or more identical
// consecutive bytes.
func hasRepeatedRun(s string, n int) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

func boolFeature(b bool) float64 {
	if b {
		return 1.0
	}
	return 0
}
