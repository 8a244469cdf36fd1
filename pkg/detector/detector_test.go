package detector

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/tiago918/app-chamadas/pkg/config"
	"github.com/tiago918/app-chamadas/pkg/event"
	"github.com/tiago918/app-chamadas/pkg/rules"
)

func newTestDetector(t *testing.T, ruleList ...rules.Rule) *Detector {
	t.Helper()
	det, err := New(config.DefaultConfig(), rules.NewMemoryStore(ruleList...), nil, nil)
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}
	return det
}

func TestDetectorCreation(t *testing.T) {
	det := newTestDetector(t)
	if det == nil {
		t.Fatal("Failed to create detector")
	}

	stats := det.Stats()
	if stats.Detections != 0 {
		t.Errorf("Fresh detector has %d detections", stats.Detections)
	}
}

func TestKindMismatchRejected(t *testing.T) {
	det := newTestDetector(t)
	ctx := context.Background()

	call := event.NewCall("+5511912345678", "", time.Now(), time.Minute, event.CallIncoming)
	if _, err := det.DetectSMS(ctx, call); err == nil {
		t.Error("DetectSMS accepted a call event")
	}

	sms := event.NewSMS("+5511912345678", "oi", time.Now(), event.MessageReceived)
	if _, err := det.DetectCall(ctx, sms); err == nil {
		t.Error("DetectCall accepted an sms event")
	}
}

func TestBlacklistedSenderIsSpam(t *testing.T) {
	det := newTestDetector(t,
		rules.Rule{Name: "blocked", Kind: rules.KindBlacklist, Pattern: "+5511999990000", Active: true, Priority: 10},
	)

	ev := event.NewCall("+5511999990000", "", time.Now(), time.Minute, event.CallIncoming)
	result, err := det.DetectCall(context.Background(), ev)
	if err != nil {
		t.Fatalf("Detection failed: %v", err)
	}

	if result.Level != LevelSpam {
		t.Errorf("Blacklisted sender scored %s (%.2f), expected spam", result.Level, result.Score)
	}
	expectReason(t, result.Reasons, "rule_match:blacklist:blocked")
	if len(result.Recommendations) == 0 {
		t.Error("Spam result carries no recommendations")
	}
}

func TestWhitelistedSenderIsClean(t *testing.T) {
	det := newTestDetector(t,
		rules.Rule{Name: "trusted", Kind: rules.KindWhitelist, Pattern: "+5511888880000", Active: true, Priority: 10},
	)

	// Content that would otherwise raise every signal
	ev := event.NewSMS("+5511888880000",
		"PRÊMIO GRÁTIS! Clique https://promo.example.com", time.Now(), event.MessageReceived)
	result, err := det.DetectSMS(context.Background(), ev)
	if err != nil {
		t.Fatalf("Detection failed: %v", err)
	}

	if result.Level != LevelClean {
		t.Errorf("Whitelisted sender scored %s, expected clean", result.Level)
	}
	if result.Score != 0 {
		t.Errorf("Whitelisted sender scored %.2f, expected 0", result.Score)
	}
	if result.Confidence != 1.0 {
		t.Errorf("Whitelist confidence %.2f, expected 1.0", result.Confidence)
	}
}

func TestFusionWeightsSumToOne(t *testing.T) {
	det := newTestDetector(t)

	ev := event.NewSMS("+5511912345678", "reunião amanhã às 10h", time.Now(), event.MessageReceived)
	result, err := det.DetectSMS(context.Background(), ev)
	if err != nil {
		t.Fatalf("Detection failed: %v", err)
	}

	sum := result.Weights.Learned + result.Weights.Behavior + result.Weights.Rule
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("Fusion weights sum to %f, expected 1", sum)
	}
}

func TestLevelThresholds(t *testing.T) {
	det := newTestDetector(t)

	testCases := []struct {
		score    float64
		expected Level
	}{
		{0.0, LevelClean},
		{0.29, LevelClean},
		{0.3, LevelQuestionable},
		{0.49, LevelQuestionable},
		{0.5, LevelSuspicious},
		{0.69, LevelSuspicious},
		{0.7, LevelSpam},
		{1.0, LevelSpam},
	}

	for _, tc := range testCases {
		if got := det.classify(tc.score, 0); got != tc.expected {
			t.Errorf("classify(%.2f, 0) = %s, expected %s", tc.score, got, tc.expected)
		}
	}
}

func TestAllComponentsFailedIsUnknown(t *testing.T) {
	det := newTestDetector(t)

	for _, score := range []float64{0, 0.5, 1} {
		if got := det.classify(score, 3); got != LevelUnknown {
			t.Errorf("classify(%.2f, 3) = %s, expected unknown", score, got)
		}
	}
	if got := det.classify(0.9, 2); got != LevelSpam {
		t.Errorf("Partial failure should still classify, got %s", got)
	}
}

func TestRepeatedSpamMessagesEscalate(t *testing.T) {
	det := newTestDetector(t)
	ctx := context.Background()
	sender := "+5511999990000"

	ts := time.Now().Add(-time.Hour)
	var first, last *Result
	for i := 0; i < 30; i++ {
		body := fmt.Sprintf("PRÊMIO GRÁTIS! Resgate em https://promo.example.com/%d!", i)
		ev := event.NewSMS(sender, body, ts.Add(time.Duration(i)*30*time.Second), event.MessageReceived)
		result, err := det.DetectSMS(ctx, ev)
		if err != nil {
			t.Fatalf("Detection %d failed: %v", i, err)
		}
		if first == nil {
			first = result
		}
		last = result
	}

	if last.Score <= first.Score {
		t.Errorf("Score did not escalate with repeated spam: %.2f -> %.2f", first.Score, last.Score)
	}
	if last.Level == LevelClean {
		t.Errorf("Sustained spam burst still scored clean (%.2f)", last.Score)
	}
	expectReason(t, last.Reasons, "content:contains_link")
}

func TestKeywordURLBurstCrossesSuspicious(t *testing.T) {
	det := newTestDetector(t)
	ctx := context.Background()
	sender := "+5511999990000"

	// 25 keyword-and-link messages spread evenly over one hour
	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	var last *Result
	for i := 0; i < 25; i++ {
		body := fmt.Sprintf("GRÁTIS! Resgate seu prêmio em https://promo.example.com/%d", i)
		ev := event.NewSMS(sender, body, ts.Add(time.Duration(i)*144*time.Second), event.MessageReceived)
		result, err := det.DetectSMS(ctx, ev)
		if err != nil {
			t.Fatalf("Detection %d failed: %v", i, err)
		}
		last = result
	}

	if last.Level != LevelSuspicious && last.Level != LevelSpam {
		t.Errorf("Hour-long keyword/URL burst scored %s (%.2f), expected at least suspicious",
			last.Level, last.Score)
	}
	expectReason(t, last.Reasons, "behavior:automated_pattern")
	expectReason(t, last.Reasons, "behavior:url_heavy_messages")
}

func TestCacheReturnsIdenticalResult(t *testing.T) {
	det := newTestDetector(t)
	ctx := context.Background()
	ev := event.NewCall("+5511912345678", "", time.Now(), time.Minute, event.CallIncoming)

	firstResult, err := det.DetectCall(ctx, ev)
	if err != nil {
		t.Fatalf("Detection failed: %v", err)
	}
	if firstResult.Cached {
		t.Error("First detection marked as cached")
	}

	secondResult, err := det.DetectCall(ctx, ev)
	if err != nil {
		t.Fatalf("Detection failed: %v", err)
	}
	if !secondResult.Cached {
		t.Error("Second detection not served from cache")
	}
	if secondResult.Score != firstResult.Score || secondResult.ID != firstResult.ID {
		t.Error("Cached result differs from original")
	}
}

func TestDistinctMessagesNotConflated(t *testing.T) {
	det := newTestDetector(t)
	ctx := context.Background()
	sender := "+5511912345678"

	a, err := det.DetectSMS(ctx, event.NewSMS(sender, "oi, tudo bem?", time.Now(), event.MessageReceived))
	if err != nil {
		t.Fatalf("Detection failed: %v", err)
	}
	b, err := det.DetectSMS(ctx, event.NewSMS(sender, "GRÁTIS! www.promo.com", time.Now(), event.MessageReceived))
	if err != nil {
		t.Fatalf("Detection failed: %v", err)
	}

	if b.Cached {
		t.Error("Different message body served from cache")
	}
	if a.ID == b.ID {
		t.Error("Distinct messages share a result")
	}
}

func TestFeedbackInvalidatesCache(t *testing.T) {
	det := newTestDetector(t)
	ctx := context.Background()
	sender := "+5511912345678"
	ev := event.NewCall(sender, "", time.Now(), time.Minute, event.CallIncoming)

	if _, err := det.DetectCall(ctx, ev); err != nil {
		t.Fatalf("Detection failed: %v", err)
	}
	if err := det.TrainFeedback(ctx, ev, true); err != nil {
		t.Fatalf("Feedback failed: %v", err)
	}

	result, err := det.DetectCall(ctx, ev)
	if err != nil {
		t.Fatalf("Detection failed: %v", err)
	}
	if result.Cached {
		t.Error("Cache not invalidated after feedback")
	}
	if det.Stats().Model.Samples != 1 {
		t.Errorf("Expected 1 trained sample, got %d", det.Stats().Model.Samples)
	}
}

func TestCacheBoundedByCapacity(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Detection.CacheSize = 3
	det, err := New(cfg, rules.NewMemoryStore(), nil, nil)
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}

	ctx := context.Background()
	senders := []string{"+5511911110001", "+5511911110002", "+5511911110003", "+5511911110004", "+5511911110005"}
	for _, sender := range senders {
		ev := event.NewCall(sender, "", time.Now(), time.Minute, event.CallIncoming)
		if _, err := det.DetectCall(ctx, ev); err != nil {
			t.Fatalf("Detection failed: %v", err)
		}
	}

	if entries := det.Stats().CacheEntries; entries > 3 {
		t.Errorf("Cache holds %d entries, capacity is 3", entries)
	}
}

func TestStatsCounters(t *testing.T) {
	det := newTestDetector(t,
		rules.Rule{Name: "blocked", Kind: rules.KindBlacklist, Pattern: "+5511999990000", Active: true, Priority: 10},
	)
	ctx := context.Background()

	spamEv := event.NewCall("+5511999990000", "", time.Now(), time.Minute, event.CallIncoming)
	cleanEv := event.NewCall("+5511912345678", "", time.Now(), 2*time.Minute, event.CallIncoming)
	if _, err := det.DetectCall(ctx, spamEv); err != nil {
		t.Fatalf("Detection failed: %v", err)
	}
	if _, err := det.DetectCall(ctx, cleanEv); err != nil {
		t.Fatalf("Detection failed: %v", err)
	}

	stats := det.Stats()
	if stats.Detections != 2 {
		t.Errorf("Expected 2 detections, got %d", stats.Detections)
	}
	if stats.SpamDetected != 1 {
		t.Errorf("Expected 1 spam detection, got %d", stats.SpamDetected)
	}
	if stats.ProfiledSenders != 2 {
		t.Errorf("Expected 2 profiled senders, got %d", stats.ProfiledSenders)
	}
	if stats.ActiveRules != 1 {
		t.Errorf("Expected 1 active rule, got %d", stats.ActiveRules)
	}
}

func TestCancelledContext(t *testing.T) {
	det := newTestDetector(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := event.NewCall("+5511912345678", "", time.Now(), time.Minute, event.CallIncoming)
	if _, err := det.DetectCall(ctx, ev); err == nil {
		t.Error("Cancelled context did not abort detection")
	}
}

func expectReason(t *testing.T, reasons []string, want string) {
	t.Helper()
	for _, r := range reasons {
		if r == want {
			return
		}
	}
	t.Errorf("Reason %s missing from %v", want, reasons)
}
