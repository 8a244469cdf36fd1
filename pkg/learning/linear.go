package learning

import (
	"hash/fnv"
	"math"
	"sync"
	"time"
)

// Config holds online scorer parameters
type Config struct {
	// Step size for gradient updates
	LearningRate float64 `json:"learning_rate"`

	// Absolute bound applied to each weight after an update. Online
	// gradient steps with noisy feedback can otherwise drift without
	// bound.
	MaxWeight float64 `json:"max_weight"`
}

// DefaultConfig returns default scorer configuration
func DefaultConfig() *Config {
	return &Config{
		LearningRate: 0.1,
		MaxWeight:    8.0,
	}
}

// Model is an online logistic scorer over named features. Weights start
// near zero and are adjusted by one stochastic-gradient step per feedback
// sample. Gradient steps do not commute, so all mutation runs under one
// mutex.
type Model struct {
	mu sync.Mutex

	weights map[string]float64
	bias    float64
	config  *Config

	samples     int
	agreed      int
	lastTrained time.Time
}

// NewModel creates a scorer with empty weights. Each feature weight is
// initialized lazily, the first time the feature is seen.
func NewModel(config *Config) *Model {
	if config == nil {
		config = DefaultConfig()
	}
	return &Model{
		weights: make(map[string]float64),
		config:  config,
	}
}

// Predict returns the spam probability for a feature vector. Output is
// strictly inside (0,1); with no training it hovers near 0.5.
func (m *Model) Predict(features map[string]float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictLocked(features)
}

func (m *Model) predictLocked(features map[string]float64) float64 {
	z := m.bias
	for name, value := range features {
		z += m.weightLocked(name) * value
	}
	return sigmoid(z)
}

// weightLocked returns the weight for a feature, creating a small initial
// weight on first sight. The initial value is derived from the feature
// name so cold-start predictions are identical across restarts.
func (m *Model) weightLocked(name string) float64 {
	w, ok := m.weights[name]
	if !ok {
		w = coldStartWeight(name)
		m.weights[name] = w
	}
	return w
}

func coldStartWeight(name string) float64 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return (float64(h.Sum32())/float64(math.MaxUint32) - 0.5) * 0.02
}

// Train applies one gradient step toward the given label. The prediction
// made before the step feeds the running accuracy estimate.
func (m *Model) Train(features map[string]float64, spam bool) {
	label := 0.0
	if spam {
		label = 1.0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	predicted := m.predictLocked(features)
	if (predicted >= 0.5) == spam {
		m.agreed++
	}
	m.samples++

	err := label - predicted
	lr := m.config.LearningRate
	for name, value := range features {
		w := m.weightLocked(name) + lr*err*value
		m.weights[name] = clamp(w, -m.config.MaxWeight, m.config.MaxWeight)
	}
	m.bias = clamp(m.bias+lr*err, -m.config.MaxWeight, m.config.MaxWeight)

	m.lastTrained = time.Now()
}

// Accuracy estimates how often predictions agreed with subsequent feedback.
// Returns 0.5 before any feedback has arrived.
func (m *Model) Accuracy() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.samples == 0 {
		return 0.5
	}
	return float64(m.agreed) / float64(m.samples)
}

// ModelInfo describes the current model state
type ModelInfo struct {
	FeatureCount int       `json:"feature_count"`
	Bias         float64   `json:"bias"`
	Samples      int       `json:"samples"`
	Accuracy     float64   `json:"accuracy"`
	LastTrained  time.Time `json:"last_trained"`
}

// Info returns a snapshot of model statistics
func (m *Model) Info() ModelInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	accuracy := 0.5
	if m.samples > 0 {
		accuracy = float64(m.agreed) / float64(m.samples)
	}
	return ModelInfo{
		FeatureCount: len(m.weights),
		Bias:         m.bias,
		Samples:      m.samples,
		Accuracy:     accuracy,
		LastTrained:  m.lastTrained,
	}
}

// Snapshot captures the full persistable model state
type Snapshot struct {
	Weights     map[string]float64 `json:"weights"`
	Bias        float64            `json:"bias"`
	Samples     int                `json:"samples"`
	Agreed      int                `json:"agreed"`
	LastTrained time.Time          `json:"last_trained"`
	Config      *Config            `json:"config"`
}

// Snapshot copies the model state for persistence
func (m *Model) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	weights := make(map[string]float64, len(m.weights))
	for k, v := range m.weights {
		weights[k] = v
	}
	return &Snapshot{
		Weights:     weights,
		Bias:        m.bias,
		Samples:     m.samples,
		Agreed:      m.agreed,
		LastTrained: m.lastTrained,
		Config:      m.config,
	}
}

// Restore replaces the model state with a previously saved snapshot
func (m *Model) Restore(snap *Snapshot) {
	if snap == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.weights = make(map[string]float64, len(snap.Weights))
	for k, v := range snap.Weights {
		m.weights[k] = v
	}
	m.bias = snap.Bias
	m.samples = snap.Samples
	m.agreed = snap.Agreed
	m.lastTrained = snap.LastTrained
	if snap.Config != nil {
		m.config = snap.Config
	}
}

// Reset clears all learned state
func (m *Model) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.weights = make(map[string]float64)
	m.bias = 0
	m.samples = 0
	m.agreed = 0
	m.lastTrained = time.Time{}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
