package detector

import (
	"context"
	"crypto/sha1"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/tiago918/app-chamadas/pkg/config"
	"github.com/tiago918/app-chamadas/pkg/event"
	"github.com/tiago918/app-chamadas/pkg/features"
	"github.com/tiago918/app-chamadas/pkg/learning"
	"github.com/tiago918/app-chamadas/pkg/profile"
	"github.com/tiago918/app-chamadas/pkg/rules"
)

// Level is the final classification of an event.
type Level string

const (
	// LevelUnknown marks results where no scoring component produced a
	// signal, so the score carries no meaning.
	LevelUnknown      Level = "unknown"
	LevelClean        Level = "clean"
	LevelQuestionable Level = "questionable"
	LevelSuspicious   Level = "suspicious"
	LevelSpam         Level = "spam"
)

// Signals holds the raw per-component scores that were fused.
type Signals struct {
	Learned  float64 `json:"learned"`
	Behavior float64 `json:"behavior"`
	Rule     float64 `json:"rule"`
}

// Result is the outcome of one detection.
type Result struct {
	ID              string        `json:"id"`
	Sender          string        `json:"sender"`
	Kind            event.Kind    `json:"kind"`
	Score           float64       `json:"score"`
	Level           Level         `json:"level"`
	Confidence      float64       `json:"confidence"`
	Signals         Signals       `json:"signals"`
	Weights         Signals       `json:"weights"`
	Reasons         []string      `json:"reasons"`
	Recommendations []string      `json:"recommendations"`
	ProcessedAt     time.Time     `json:"processed_at"`
	Elapsed         time.Duration `json:"elapsed"`
	Cached          bool          `json:"cached"`
}

// HistorySink receives every non-clean result for later inspection.
type HistorySink interface {
	Append(result *Result)
}

// Stats summarizes engine activity since startup.
type Stats struct {
	Detections      int64              `json:"detections"`
	SpamDetected    int64              `json:"spam_detected"`
	CacheEntries    int                `json:"cache_entries"`
	CacheHitRate    float64            `json:"cache_hit_rate"`
	ProfiledSenders int                `json:"profiled_senders"`
	ActiveRules     int                `json:"active_rules"`
	Model           learning.ModelInfo `json:"model"`
	Uptime          time.Duration      `json:"uptime"`
}

// Detector fuses rule, learned and behavioral signals into one score.
type Detector struct {
	config    *config.Config
	matcher   *rules.Matcher
	extractor *features.Extractor
	model     *learning.Model
	profiler  *profile.Profiler
	cache     *resultCache

	modelStore learning.ModelStore
	history    HistorySink
	logger     *zap.Logger

	detections   atomic.Int64
	spamDetected atomic.Int64
	startedAt    time.Time
}

// New wires the detection engine from configuration. When modelStore is
// non-nil a persisted model snapshot is restored on startup and updated
// after every feedback sample.
func New(cfg *config.Config, ruleStore rules.Store, modelStore learning.ModelStore, logger *zap.Logger) (*Detector, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if ruleStore == nil {
		ruleStore = rules.NewMemoryStore()
	}

	model := learning.NewModel(&learning.Config{
		LearningRate: cfg.Learning.LearningRate,
		MaxWeight:    cfg.Learning.MaxWeight,
	})
	if modelStore != nil {
		snap, err := modelStore.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load model: %w", err)
		}
		if snap != nil {
			model.Restore(snap)
			logger.Info("restored learned model",
				zap.Int("features", len(snap.Weights)),
				zap.Int("samples", snap.Samples))
		}
	}

	d := &Detector{
		config: cfg,
		matcher: rules.NewMatcher(ruleStore,
			time.Duration(cfg.Rules.RefreshIntervalMin)*time.Minute,
			cfg.Rules.HomePrefix, cfg.Rules.ShortCodeMaxDigits,
			logger),
		extractor: features.NewExtractor(cfg.Detection.Keywords),
		model:     model,
		profiler: profile.NewProfiler(&profile.Config{
			MinDataPoints:     cfg.Profile.MinDataPoints,
			WindowDays:        cfg.Profile.WindowDays,
			TopKeywords:       cfg.Profile.TopKeywords,
			MaxIntervals:      cfg.Profile.MaxIntervals,
			MaxCallsPerDay:    cfg.Profile.MaxCallsPerDay,
			MaxSMSPerDay:      cfg.Profile.MaxSMSPerDay,
			OffHoursRatio:     cfg.Profile.OffHoursRatio,
			ShortCallSeconds:  cfg.Profile.ShortCallSeconds,
			BusinessHourStart: cfg.Profile.BusinessHourStart,
			BusinessHourEnd:   cfg.Profile.BusinessHourEnd,
		}, logger),
		cache: newResultCache(cfg.Detection.CacheSize,
			time.Duration(cfg.Detection.CacheTTLMin)*time.Minute),
		modelStore: modelStore,
		logger:     logger,
		startedAt:  time.Now(),
	}
	return d, nil
}

// SetHistory attaches a sink that receives every non-clean result.
func (d *Detector) SetHistory(sink HistorySink) {
	d.history = sink
}

// DetectCall scores an incoming, outgoing or missed call.
func (d *Detector) DetectCall(ctx context.Context, ev event.Event) (*Result, error) {
	if ev.Kind != event.KindCall {
		return nil, fmt.Errorf("expected call event, got %s", ev.Kind)
	}
	return d.detect(ctx, ev)
}

// DetectSMS scores a text message.
func (d *Detector) DetectSMS(ctx context.Context, ev event.Event) (*Result, error) {
	if ev.Kind != event.KindSMS {
		return nil, fmt.Errorf("expected sms event, got %s", ev.Kind)
	}
	return d.detect(ctx, ev)
}

func (d *Detector) detect(ctx context.Context, ev event.Event) (*Result, error) {
	start := time.Now()

	sender := event.NormalizeNumber(ev.Sender)
	if sender == "" {
		return nil, fmt.Errorf("event has no sender")
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	// The profile update happens before the cache lookup so repeated
	// events from a cached sender still accumulate behavioral evidence.
	d.profiler.Record(sender, profile.Activity{
		Kind:      ev.Kind,
		Timestamp: ev.Timestamp,
		Duration:  ev.Duration,
		CallDir:   ev.CallDir,
		MsgDir:    ev.MsgDir,
		Content:   event.ScanContent(ev.Body, d.config.Detection.Keywords),
	})

	key := cacheKey(sender, ev)
	if cached, ok := d.cache.get(key); ok {
		hit := *cached
		hit.Cached = true
		hit.Elapsed = time.Since(start)
		return &hit, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ruleMatch, learnedScore, behavior, failures := d.gather(ev, sender)

	result := &Result{
		ID:          uuid.NewString(),
		Sender:      sender,
		Kind:        ev.Kind,
		ProcessedAt: time.Now(),
	}

	if ruleMatch.Matched && ruleMatch.Rule.Allows() {
		result.Level = LevelClean
		result.Confidence = 1.0
		result.Reasons = []string{ruleReason(ruleMatch)}
		result.Recommendations = recommendations(LevelClean)
		result.Elapsed = time.Since(start)
		d.finish(key, sender, result)
		return result, nil
	}

	var ruleScore float64
	if ruleMatch.Matched {
		ruleScore = 1.0
	}

	behaviorScore := 0.0
	behaviorConf := 0.0
	if behavior != nil && behavior.Level != profile.LevelUnknown {
		behaviorScore = behavior.Suspicion
		behaviorConf = behavior.Confidence
	}

	weights := d.fusionWeights(behaviorConf, failures)
	score := weights.Learned*learnedScore +
		weights.Behavior*behaviorScore +
		weights.Rule*ruleScore
	if ruleMatch.Matched {
		// Blocking rules carry authority beyond their fusion share.
		score = math.Max(score, d.config.Detection.SpamThreshold)
	}
	score = clampUnit(score)

	result.Score = score
	result.Level = d.classify(score, failures)
	result.Signals = Signals{Learned: learnedScore, Behavior: behaviorScore, Rule: ruleScore}
	result.Weights = weights
	result.Confidence = d.confidence(result.Signals, behaviorConf, score, failures)
	if result.Level == LevelUnknown {
		result.Confidence = 0
	}
	result.Reasons = d.reasons(ev, ruleMatch, learnedScore, behavior)
	result.Recommendations = recommendations(result.Level)
	result.Elapsed = time.Since(start)

	d.finish(key, sender, result)
	return result, nil
}

// gather runs the three scoring components concurrently. A panicking
// component is treated as absent rather than failing the detection.
func (d *Detector) gather(ev event.Event, sender string) (ruleMatch rules.Match, learnedScore float64, behavior *profile.Analysis, failures int) {
	var wg sync.WaitGroup
	var failed atomic.Int32

	run := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					failed.Add(1)
					d.logger.Error("scoring component panicked",
						zap.String("component", name),
						zap.Any("panic", r))
				}
			}()
			fn()
		}()
	}

	run("rules", func() {
		ruleMatch = d.matcher.Evaluate(sender, ev.Body, ev.Timestamp)
	})
	run("learned", func() {
		learnedScore = d.model.Predict(d.extractor.Extract(ev))
	})
	run("behavior", func() {
		behavior = d.profiler.Analyze(sender)
	})

	wg.Wait()
	return ruleMatch, learnedScore, behavior, int(failed.Load())
}

// fusionWeights starts from the configured base shares and, when the
// behavioral signal is weakly supported, shifts part of its share to the
// learned and rule signals. The returned weights sum to one.
func (d *Detector) fusionWeights(behaviorConf float64, failures int) Signals {
	base := d.config.Detection.Weights
	w := Signals{Learned: base.Learned, Behavior: base.Behavior, Rule: base.Rule}

	if behaviorConf < d.config.Detection.MinBehaviorConfidence {
		shifted := w.Behavior * (1 - behaviorConf)
		w.Behavior -= shifted
		w.Learned += shifted * 0.6
		w.Rule += shifted * 0.4
	}

	sum := w.Learned + w.Behavior + w.Rule
	if sum <= 0 {
		return Signals{Learned: 1, Behavior: 0, Rule: 0}
	}
	w.Learned /= sum
	w.Behavior /= sum
	w.Rule /= sum
	return w
}

// confidence combines signal agreement, behavioral evidence and how far
// the fused score sits from the decision boundary.
func (d *Detector) confidence(signals Signals, behaviorConf, score float64, failures int) float64 {
	values := []float64{signals.Learned, signals.Behavior, signals.Rule}
	spread := stat.Variance(values, nil)
	agreement := 1 - math.Min(spread*4, 1)
	extremeness := math.Abs(score-0.5) * 2

	conf := 0.4*agreement + 0.3*behaviorConf + 0.3*extremeness
	conf -= 0.2 * float64(failures)
	return clampUnit(conf)
}

// classify maps a fused score to a level. When every component failed the
// score is meaningless and the verdict is unknown.
func (d *Detector) classify(score float64, failures int) Level {
	if failures >= 3 {
		return LevelUnknown
	}
	det := d.config.Detection
	switch {
	case score >= det.SpamThreshold:
		return LevelSpam
	case score >= det.SuspiciousThreshold:
		return LevelSuspicious
	case score >= det.QuestionableThreshold:
		return LevelQuestionable
	default:
		return LevelClean
	}
}

func (d *Detector) finish(key, sender string, result *Result) {
	d.detections.Add(1)
	if result.Level == LevelSpam {
		d.spamDetected.Add(1)
	}
	d.cache.put(key, sender, result)
	if d.history != nil && result.Level != LevelClean {
		d.history.Append(result)
	}
	d.logger.Debug("event scored",
		zap.String("sender", sender),
		zap.String("kind", string(result.Kind)),
		zap.Float64("score", result.Score),
		zap.String("level", string(result.Level)),
		zap.Duration("elapsed", result.Elapsed))
}

// TrainFeedback folds a user verdict into the learned model, persists the
// updated model and drops the sender's cached results so the next
// detection reflects the correction.
func (d *Detector) TrainFeedback(ctx context.Context, ev event.Event, spam bool) error {
	sender := event.NormalizeNumber(ev.Sender)
	if sender == "" {
		return fmt.Errorf("event has no sender")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.model.Train(d.extractor.Extract(ev), spam)
	d.cache.invalidateSender(sender)

	if d.modelStore != nil {
		if err := d.modelStore.Save(d.model.Snapshot()); err != nil {
			return fmt.Errorf("failed to persist model: %w", err)
		}
	}

	d.logger.Info("feedback trained",
		zap.String("sender", sender),
		zap.Bool("spam", spam),
		zap.Int("samples", d.model.Info().Samples))
	return nil
}

// Stats reports engine counters and model state.
func (d *Detector) Stats() Stats {
	return Stats{
		Detections:      d.detections.Load(),
		SpamDetected:    d.spamDetected.Load(),
		CacheEntries:    d.cache.len(),
		CacheHitRate:    d.cache.hitRate(),
		ProfiledSenders: d.profiler.Count(),
		ActiveRules:     d.matcher.RuleCount(),
		Model:           d.model.Info(),
		Uptime:          time.Since(d.startedAt),
	}
}

// Rules exposes the underlying matcher for rule management commands.
func (d *Detector) Rules() *rules.Matcher {
	return d.matcher
}

// InvalidateRules forces a rule reload on the next evaluation.
func (d *Detector) InvalidateRules() {
	d.matcher.Invalidate()
}

// cacheKey identifies a detection: calls key on the sender alone, messages
// additionally on a digest of the body so distinct texts are not conflated.
func cacheKey(sender string, ev event.Event) string {
	if ev.Kind == event.KindSMS {
		sum := sha1.Sum([]byte(ev.Body))
		return fmt.Sprintf("%s#%x", sender, sum)
	}
	return sender
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
