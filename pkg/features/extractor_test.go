package features

import (
	"testing"
	"time"

	"github.com/tiago918/app-chamadas/pkg/event"
)

var testKeywords = []string{"grátis", "prêmio", "urgente"}

func TestExtractCallFeatures(t *testing.T) {
	extractor := NewExtractor(testKeywords)

	ts := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC) // Tuesday afternoon
	ev := event.NewCall("+5511912345678", "", ts, 30*time.Second, event.CallIncoming)
	v := extractor.Extract(ev)

	if _, ok := v["call_duration"]; !ok {
		t.Error("Missing call_duration feature")
	}
	if _, ok := v["msg_length"]; ok {
		t.Error("Call event must not carry message features")
	}
	if v["off_hours"] != 0 {
		t.Errorf("14:00 scored as off hours: %.1f", v["off_hours"])
	}
	if v["missed_call"] != 0 {
		t.Errorf("Answered call scored as missed: %.1f", v["missed_call"])
	}
}

func TestExtractSMSFeatures(t *testing.T) {
	extractor := NewExtractor(testKeywords)

	ev := event.NewSMS("+5511912345678",
		"GANHE UM PRÊMIO GRÁTIS! Acesse https://promo.example.com",
		time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC),
		event.MessageReceived)
	v := extractor.Extract(ev)

	if v["has_url"] != 1 {
		t.Errorf("URL not detected: %.1f", v["has_url"])
	}
	if v["keyword_density"] <= 0 {
		t.Errorf("Keywords not detected: %.2f", v["keyword_density"])
	}
	// URL letters count as lowercase, diluting the ratio
	if v["caps_ratio"] < 0.35 {
		t.Errorf("Expected elevated caps ratio, got %.2f", v["caps_ratio"])
	}
	if v["off_hours"] != 1 {
		t.Errorf("22:00 not scored as off hours: %.1f", v["off_hours"])
	}
	if _, ok := v["call_duration"]; ok {
		t.Error("SMS event must not carry call features")
	}
}

func TestFeatureRanges(t *testing.T) {
	extractor := NewExtractor(testKeywords)

	events := []event.Event{
		event.NewCall("0000000000000000000000", "", time.Now(), 10*time.Hour, event.CallMissed),
		event.NewSMS("29090", string(make([]byte, 5000)), time.Now(), event.MessageReceived),
	}

	for _, ev := range events {
		for name, value := range extractor.Extract(ev) {
			if value < 0 || value > 1 {
				t.Errorf("Feature %s out of range: %.2f", name, value)
			}
		}
	}
}

func TestRepeatedDigitRuns(t *testing.T) {
	testCases := []struct {
		digits   string
		expected bool
	}{
		{"5511999990000", true}, // run of five nines
		{"5550000", true},       // run at the end
		{"000012345", true},     // run at the start
		{"555000", false},       // two runs of three
		{"5511938274651", false},
		{"", false},
	}

	for _, tc := range testCases {
		if got := hasRepeatedRun(tc.digits, 4); got != tc.expected {
			t.Errorf("hasRepeatedRun(%q, 4) = %v, expected %v", tc.digits, got, tc.expected)
		}
	}
}

func TestShortCodeAndDigitPatterns(t *testing.T) {
	extractor := NewExtractor(nil)

	testCases := []struct {
		sender     string
		shortCode  float64
		repeated   float64
		sequential float64
	}{
		{"29090", 1, 0, 0},
		{"+5511999990000", 0, 1, 0},
		{"+5511123456789", 0, 0, 1},
		{"+5511938274651", 0, 0, 0},
	}

	for _, tc := range testCases {
		v := extractor.Extract(event.NewCall(tc.sender, "", time.Now(), 0, event.CallIncoming))
		if v["short_code"] != tc.shortCode {
			t.Errorf("short_code(%s) = %.1f, expected %.1f", tc.sender, v["short_code"], tc.shortCode)
		}
		if v["repeated_digits"] != tc.repeated {
			t.Errorf("repeated_digits(%s) = %.1f, expected %.1f", tc.sender, v["repeated_digits"], tc.repeated)
		}
		if v["sequential_digits"] != tc.sequential {
			t.Errorf("sequential_digits(%s) = %.1f, expected %.1f", tc.sender, v["sequential_digits"], tc.sequential)
		}
	}
}
