package learning

import (
	"math"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	store := NewFileStore(path)

	// Missing file means no model, not an error
	snap, err := store.Load()
	if err != nil {
		t.Fatalf("Load on missing file failed: %v", err)
	}
	if snap != nil {
		t.Error("Expected nil snapshot for missing file")
	}

	model := NewModel(nil)
	for i := 0; i < 10; i++ {
		model.Train(spamVector(), true)
	}
	if err := store.Save(model.Snapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	snap, err = store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap == nil {
		t.Fatal("Load returned nil snapshot for existing file")
	}

	restored := NewModel(nil)
	restored.Restore(snap)
	if diff := math.Abs(restored.Predict(spamVector()) - model.Predict(spamVector())); diff > 1e-9 {
		t.Errorf("Prediction drifted %.12f across persistence", diff)
	}
	if restored.Info().Samples != 10 {
		t.Errorf("Expected 10 samples, got %d", restored.Info().Samples)
	}
}
