package rules

import (
	"path/filepath"
	"testing"
)

func TestMemoryStoreCRUD(t *testing.T) {
	store := NewMemoryStore()

	created, err := store.Create(Rule{Name: "test", Kind: KindBlacklist, Pattern: "+5511999990000", Active: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Error("Created rule has no ID")
	}

	created.Priority = 42
	if err := store.Update(created); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	ruleList, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ruleList) != 1 || ruleList[0].Priority != 42 {
		t.Errorf("Unexpected rules after update: %+v", ruleList)
	}

	if err := store.Delete(created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(created.ID); err == nil {
		t.Error("Deleting a missing rule should fail")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yml")
	store := NewFileStore(path)

	// Missing file means no rules, not an error
	ruleList, err := store.List()
	if err != nil {
		t.Fatalf("List on missing file failed: %v", err)
	}
	if len(ruleList) != 0 {
		t.Errorf("Expected empty store, got %d rules", len(ruleList))
	}

	created, err := store.Create(Rule{Name: "persisted", Kind: KindKeyword, Pattern: "grátis", Active: true, Priority: 7})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// A fresh store reading the same file sees the rule
	reopened := NewFileStore(path)
	ruleList, err = reopened.List()
	if err != nil {
		t.Fatalf("List after reopen failed: %v", err)
	}
	if len(ruleList) != 1 {
		t.Fatalf("Expected 1 rule after reopen, got %d", len(ruleList))
	}
	if ruleList[0].ID != created.ID || ruleList[0].Pattern != "grátis" || ruleList[0].Priority != 7 {
		t.Errorf("Rule changed across round trip: %+v", ruleList[0])
	}
}
