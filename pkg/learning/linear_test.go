package learning

import (
	"math"
	"testing"
)

func spamVector() map[string]float64 {
	return map[string]float64{
		"has_url":         1,
		"keyword_density": 1,
		"caps_ratio":      0.9,
		"off_hours":       1,
	}
}

func hamVector() map[string]float64 {
	return map[string]float64{
		"has_url":         0,
		"keyword_density": 0,
		"caps_ratio":      0.1,
		"off_hours":       0,
	}
}

func TestPredictIsProbability(t *testing.T) {
	model := NewModel(nil)

	for _, v := range []map[string]float64{spamVector(), hamVector(), {}} {
		p := model.Predict(v)
		if p <= 0 || p >= 1 {
			t.Errorf("Predict(%v) = %f, expected open interval (0,1)", v, p)
		}
	}
}

func TestColdStartIsDeterministic(t *testing.T) {
	a := NewModel(nil)
	b := NewModel(nil)

	for _, v := range []map[string]float64{spamVector(), hamVector()} {
		pa, pb := a.Predict(v), b.Predict(v)
		if pa != pb {
			t.Errorf("Fresh models disagree on %v: %f vs %f", v, pa, pb)
		}
		if math.Abs(pa-0.5) > 0.05 {
			t.Errorf("Cold-start prediction %f strays far from 0.5", pa)
		}
	}
}

func TestTrainMovesPrediction(t *testing.T) {
	model := NewModel(nil)

	before := model.Predict(spamVector())
	for i := 0; i < 50; i++ {
		model.Train(spamVector(), true)
		model.Train(hamVector(), false)
	}

	after := model.Predict(spamVector())
	if after <= before {
		t.Errorf("Spam prediction did not increase: %.4f -> %.4f", before, after)
	}
	if ham := model.Predict(hamVector()); ham >= after {
		t.Errorf("Ham prediction %.4f not below spam prediction %.4f", ham, after)
	}
}

func TestWeightsStayBounded(t *testing.T) {
	model := NewModel(&Config{LearningRate: 1.0, MaxWeight: 2.0})

	// Hammer one direction to push weights against the bound
	for i := 0; i < 1000; i++ {
		model.Train(spamVector(), true)
	}

	snap := model.Snapshot()
	for name, w := range snap.Weights {
		if math.Abs(w) > 2.0 {
			t.Errorf("Weight %s = %f exceeds bound", name, w)
		}
	}
	if math.Abs(snap.Bias) > 2.0 {
		t.Errorf("Bias %f exceeds bound", snap.Bias)
	}
}

func TestAccuracyTracking(t *testing.T) {
	model := NewModel(nil)

	if acc := model.Accuracy(); acc != 0.5 {
		t.Errorf("Untrained accuracy = %f, expected 0.5", acc)
	}

	model.Train(spamVector(), true)
	info := model.Info()
	if info.Samples != 1 {
		t.Errorf("Expected 1 sample, got %d", info.Samples)
	}
	if info.LastTrained.IsZero() {
		t.Error("LastTrained not set")
	}
}

func TestSnapshotRestore(t *testing.T) {
	model := NewModel(nil)
	for i := 0; i < 20; i++ {
		model.Train(spamVector(), true)
	}
	expected := model.Predict(spamVector())

	restored := NewModel(nil)
	restored.Restore(model.Snapshot())

	if got := restored.Predict(spamVector()); math.Abs(got-expected) > 1e-9 {
		t.Errorf("Restored prediction %f, expected %f", got, expected)
	}
	if restored.Info().Samples != model.Info().Samples {
		t.Error("Sample count not restored")
	}
}

func TestReset(t *testing.T) {
	model := NewModel(nil)
	model.Train(spamVector(), true)
	model.Reset()

	info := model.Info()
	if info.Samples != 0 || info.FeatureCount != 0 {
		t.Errorf("Reset left state behind: %+v", info)
	}
}
