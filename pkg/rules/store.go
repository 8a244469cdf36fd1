package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Store is the rule persistence boundary. The engine only reads; the CLI
// and external management surfaces mutate.
type Store interface {
	List() ([]Rule, error)
	Create(rule Rule) (Rule, error)
	Update(rule Rule) error
	Delete(id string) error
}

// MemoryStore keeps rules in memory. Useful for tests and embedding.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewMemoryStore creates an empty in-memory rule store.
func NewMemoryStore(rules ...Rule) *MemoryStore {
	s := &MemoryStore{rules: make(map[string]Rule)}
	for _, r := range rules {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		s.rules[r.ID] = r
	}
	return s
}

func (s *MemoryStore) List() ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	return out, nil
}

func (s *MemoryStore) Create(rule Rule) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if _, exists := s.rules[rule.ID]; exists {
		return Rule{}, fmt.Errorf("rule %s already exists", rule.ID)
	}
	s.rules[rule.ID] = rule
	return rule, nil
}

func (s *MemoryStore) Update(rule Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; !exists {
		return fmt.Errorf("rule %s not found", rule.ID)
	}
	s.rules[rule.ID] = rule
	return nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[id]; !exists {
		return fmt.Errorf("rule %s not found", id)
	}
	delete(s.rules, id)
	return nil
}

// ruleFile is the on-disk layout of the YAML rule store.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// FileStore persists rules in a YAML file. The whole file is rewritten on
// every mutation; rule sets are small.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the YAML file at path. The file is
// created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) List() ([]Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Create(rule Rule) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.load()
	if err != nil {
		return Rule{}, err
	}

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	for _, r := range rules {
		if r.ID == rule.ID {
			return Rule{}, fmt.Errorf("rule %s already exists", rule.ID)
		}
	}

	rules = append(rules, rule)
	if err := s.save(rules); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

func (s *FileStore) Update(rule Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.load()
	if err != nil {
		return err
	}

	for i, r := range rules {
		if r.ID == rule.ID {
			rules[i] = rule
			return s.save(rules)
		}
	}
	return fmt.Errorf("rule %s not found", rule.ID)
}

func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.load()
	if err != nil {
		return err
	}

	for i, r := range rules {
		if r.ID == id {
			rules = append(rules[:i], rules[i+1:]...)
			return s.save(rules)
		}
	}
	return fmt.Errorf("rule %s not found", id)
}

func (s *FileStore) load() ([]Rule, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read rules file %s: %v", s.path, err)
	}

	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %v", s.path, err)
	}
	return f.Rules, nil
}

func (s *FileStore) save(rules []Rule) error {
	data, err := yaml.Marshal(ruleFile{Rules: rules})
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %v", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create rules directory: %v", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rules file %s: %v", s.path, err)
	}
	return nil
}
