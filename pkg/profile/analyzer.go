package profile

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/tiago918/app-chamadas/pkg/event"
)

// Level is the discrete behavioral verdict for a sender.
type Level string

const (
	LevelUnknown Level = "unknown"
	LevelClean   Level = "clean"
	LevelLow     Level = "low"
	LevelMedium  Level = "medium"
	LevelHigh    Level = "high"
)

// Analysis is the profiler's verdict for one sender. Confidence reflects
// volume of evidence and is deliberately independent of the suspicion
// score, so callers can discount an extreme verdict built on thin history.
type Analysis struct {
	Sender     string
	Level      Level
	Suspicion  float64
	Confidence float64
	Reasons    []string
}

// Config holds profiler parameters
type Config struct {
	MinDataPoints     int
	WindowDays        int
	TopKeywords       int
	MaxIntervals      int
	MaxCallsPerDay    float64
	MaxSMSPerDay      float64
	OffHoursRatio     float64
	ShortCallSeconds  int
	BusinessHourStart int
	BusinessHourEnd   int
}

// DefaultConfig returns default profiler parameters
func DefaultConfig() *Config {
	return &Config{
		MinDataPoints:     10,
		WindowDays:        30,
		TopKeywords:       50,
		MaxIntervals:      256,
		MaxCallsPerDay:    10,
		MaxSMSPerDay:      20,
		OffHoursRatio:     0.8,
		ShortCallSeconds:  10,
		BusinessHourStart: 8,
		BusinessHourEnd:   20,
	}
}

// Profiler maintains one behavioral profile per sender. Profile mutation
// is serialized per sender; different senders never contend.
type Profiler struct {
	mu       sync.RWMutex
	profiles map[string]*Profile

	config *Config
	logger *zap.Logger
}

// NewProfiler creates an empty profiler.
func NewProfiler(config *Config, logger *zap.Logger) *Profiler {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{
		profiles: make(map[string]*Profile),
		config:   config,
		logger:   logger,
	}
}

// Record folds one activity into the sender's profile and recomputes its
// suspicion score. All updates are bounded running aggregates.
func (p *Profiler) Record(sender string, act Activity) {
	sender = event.NormalizeNumber(sender)
	if sender == "" {
		return
	}
	if act.Timestamp.IsZero() {
		act.Timestamp = time.Now()
	}

	prof := p.getOrCreate(sender, act.Timestamp)

	prof.mu.Lock()
	defer prof.mu.Unlock()

	if act.Timestamp.After(prof.LastSeen) {
		prof.LastSeen = act.Timestamp
	}
	if act.Timestamp.Before(prof.FirstSeen) {
		prof.FirstSeen = act.Timestamp
	}
	prof.TotalInteractions++

	hour := act.Timestamp.Hour()
	prof.Times.HourCount[hour]++
	if hour < p.config.BusinessHourStart || hour >= p.config.BusinessHourEnd {
		prof.Times.OffHours++
	}
	prof.Times.recent.push(act.Timestamp)
	window := time.Duration(p.config.WindowDays) * 24 * time.Hour
	prof.Times.recent.trimBefore(act.Timestamp.Add(-window))

	switch act.Kind {
	case event.KindCall:
		prof.Calls.Total++
		prof.Calls.DurationSum += act.Duration
		if act.CallDir == event.CallMissed {
			prof.Calls.Missed++
		} else if act.Duration < time.Duration(p.config.ShortCallSeconds)*time.Second {
			prof.Calls.Short++
		}
	case event.KindSMS:
		prof.SMS.Total++
		prof.SMS.LengthSum += act.Content.Length
		prof.SMS.CapsSum += act.Content.CapsRatio
		if act.Content.URLCount > 0 {
			prof.SMS.WithURL++
		}
		for _, kw := range act.Content.Keywords {
			prof.Keywords.add(kw)
		}
	}

	prof.SuspicionScore = p.suspicion(prof)
}

// Analyze returns the behavioral verdict for a sender, or nil when the
// sender has never been observed. Below the minimum observation count the
// verdict is explicitly unknown rather than a guess.
func (p *Profiler) Analyze(sender string) *Analysis {
	sender = event.NormalizeNumber(sender)

	p.mu.RLock()
	prof, ok := p.profiles[sender]
	p.mu.RUnlock()
	if !ok {
		return nil
	}

	prof.mu.Lock()
	defer prof.mu.Unlock()

	if prof.TotalInteractions < p.config.MinDataPoints {
		return &Analysis{
			Sender:     sender,
			Level:      LevelUnknown,
			Suspicion:  0,
			Confidence: 0.1 * float64(prof.TotalInteractions) / float64(p.config.MinDataPoints),
			Reasons:    []string{"behavior:insufficient_history"},
		}
	}

	suspicion, reasons := p.suspicionWithReasons(prof)
	return &Analysis{
		Sender:     sender,
		Level:      levelFor(suspicion),
		Suspicion:  suspicion,
		Confidence: p.confidence(prof),
		Reasons:    reasons,
	}
}

// Count returns the number of tracked senders.
func (p *Profiler) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.profiles)
}

// Snapshot returns a copy of one profile's aggregates, or nil.
func (p *Profiler) Snapshot(sender string) *Profile {
	sender = event.NormalizeNumber(sender)

	p.mu.RLock()
	prof, ok := p.profiles[sender]
	p.mu.RUnlock()
	if !ok {
		return nil
	}

	prof.mu.Lock()
	defer prof.mu.Unlock()
	cp := Profile{
		Sender:            prof.Sender,
		FirstSeen:         prof.FirstSeen,
		LastSeen:          prof.LastSeen,
		TotalInteractions: prof.TotalInteractions,
		Calls:             prof.Calls,
		SMS:               prof.SMS,
		SuspicionScore:    prof.SuspicionScore,
	}
	return &cp
}

func (p *Profiler) getOrCreate(sender string, ts time.Time) *Profile {
	p.mu.RLock()
	prof, ok := p.profiles[sender]
	p.mu.RUnlock()
	if ok {
		return prof
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if prof, ok = p.profiles[sender]; ok {
		return prof
	}
	prof = &Profile{
		Sender:    sender,
		FirstSeen: ts,
		LastSeen:  ts,
		Keywords:  newTopKCounter(p.config.TopKeywords),
	}
	prof.Times.recent = newTimestampRing(p.config.MaxIntervals)
	p.profiles[sender] = prof
	return prof
}

func (p *Profiler) suspicion(prof *Profile) float64 {
	s, _ := p.suspicionWithReasons(prof)
	return s
}

// suspicionWithReasons sums four independent anomaly families and clamps
// the result to [0,1]. Caller must hold prof.mu.
func (p *Profiler) suspicionWithReasons(prof *Profile) (float64, []string) {
	var score float64
	var reasons []string

	days := prof.LastSeen.Sub(prof.FirstSeen).Hours() / 24
	if days < 1 {
		days = 1
	}

	// Frequency anomalies
	if float64(prof.Calls.Total)/days > p.config.MaxCallsPerDay {
		score += 0.20
		reasons = append(reasons, "behavior:high_call_frequency")
	}
	if float64(prof.SMS.Total)/days > p.config.MaxSMSPerDay {
		score += 0.20
		reasons = append(reasons, "behavior:high_sms_frequency")
	}
	observed := prof.LastSeen.Sub(prof.FirstSeen)
	if prof.TotalInteractions >= 20 && observed < 48*time.Hour {
		score += 0.15
		reasons = append(reasons, "behavior:burst_activity")
	}

	// Temporal anomalies
	if prof.TotalInteractions > 0 {
		offRatio := float64(prof.Times.OffHours) / float64(prof.TotalInteractions)
		if offRatio > p.config.OffHoursRatio {
			score += 0.15
			reasons = append(reasons, "behavior:off_hours_activity")
		}
	}
	// A near-constant cadence under five minutes is machine behavior;
	// humans do not text on a timer.
	mean, stddev, n := intervalStats(prof.Times.recent)
	if n >= 5 && mean < 300 && stddev < 10 {
		score += 0.25
		reasons = append(reasons, "behavior:automated_pattern")
	}

	// Content anomalies
	if prof.SMS.Total > 0 {
		urlRatio := float64(prof.SMS.WithURL) / float64(prof.SMS.Total)
		if urlRatio > 0.5 {
			score += 0.20
			reasons = append(reasons, "behavior:url_heavy_messages")
		}
		if prof.SMS.CapsSum/float64(prof.SMS.Total) > 0.6 {
			score += 0.10
			reasons = append(reasons, "behavior:shouting_messages")
		}
		avgLen := float64(prof.SMS.LengthSum) / float64(prof.SMS.Total)
		if avgLen > 300 || avgLen < 5 {
			score += 0.05
			reasons = append(reasons, "behavior:abnormal_message_length")
		}
		if prof.Keywords.total() >= 3 {
			score += 0.20
			reasons = append(reasons, "behavior:suspicious_keywords")
		}
	}

	// Call behavior anomalies
	if prof.Calls.Total > 0 {
		total := float64(prof.Calls.Total)
		if float64(prof.Calls.Missed)/total > 0.6 {
			score += 0.15
			reasons = append(reasons, "behavior:missed_call_pattern")
		}
		if float64(prof.Calls.Short)/total > 0.7 {
			score += 0.10
			reasons = append(reasons, "behavior:short_call_pattern")
		}
		if prof.Calls.DurationSum.Seconds()/total < 5 {
			score += 0.10
			reasons = append(reasons, "behavior:low_call_duration")
		}
	}

	return math.Min(score, 1.0), reasons
}

// confidence measures evidence volume only: interaction count tiers, how
// long the sender has been known, coverage of both channels, and interval
// history depth.
func (p *Profiler) confidence(prof *Profile) float64 {
	var c float64

	switch {
	case prof.TotalInteractions >= 50:
		c += 0.40
	case prof.TotalInteractions >= 25:
		c += 0.30
	case prof.TotalInteractions >= p.config.MinDataPoints:
		c += 0.20
	}

	daysKnown := prof.LastSeen.Sub(prof.FirstSeen).Hours() / 24
	switch {
	case daysKnown >= 14:
		c += 0.20
	case daysKnown >= 7:
		c += 0.15
	case daysKnown >= 2:
		c += 0.10
	}

	if prof.Calls.Total > 0 && prof.SMS.Total > 0 {
		c += 0.20
	}
	if prof.Times.recent.count >= 20 {
		c += 0.20
	}

	return math.Min(c, 1.0)
}

// intervalStats returns mean and standard deviation of inter-event gaps in
// seconds, plus the number of gaps.
func intervalStats(r *timestampRing) (mean, stddev float64, n int) {
	ts := r.timestamps()
	if len(ts) < 2 {
		return 0, 0, 0
	}
	gaps := make([]float64, 0, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		gaps = append(gaps, ts[i].Sub(ts[i-1]).Seconds())
	}
	mean = stat.Mean(gaps, nil)
	if len(gaps) > 1 {
		stddev = stat.StdDev(gaps, nil)
	}
	return mean, stddev, len(gaps)
}

func levelFor(suspicion float64) Level {
	switch {
	case suspicion >= 0.7:
		return LevelHigh
	case suspicion >= 0.4:
		return LevelMedium
	case suspicion >= 0.2:
		return LevelLow
	default:
		return LevelClean
	}
}
