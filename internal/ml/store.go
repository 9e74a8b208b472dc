package ml

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const artifactFileName = "maturity_model.json"

// Artifact is the immutable bundle produced by one training run: the fitted
// forest and scaler, the indicator ordering frozen at training time, and the
// maturity vocabulary. Exactly one artifact is authoritative at a time; each
// retrain overwrites the slot.
type Artifact struct {
	Forest         *RandomForest   `json:"forest"`
	Scaler         *StandardScaler `json:"scaler"`
	IndicatorOrder []string        `json:"indicator_order"`
	Levels         []string        `json:"levels"`
	Fingerprint    string          `json:"fingerprint"`
	Version        string          `json:"version"`
	TrainedAt      time.Time       `json:"trained_at"`
}

// OrderFingerprint hashes an indicator ordering. The predictor compares the
// fingerprint of the live indicator set against the one frozen in the
// artifact to catch a changed indicator set before it silently misaligns
// feature vectors.
func OrderFingerprint(order []string) string {
	h := sha256.Sum256([]byte(strings.Join(order, "\x1f")))
	return hex.EncodeToString(h[:])
}

// Store manages the single-slot model artifact on disk. Save and Load are
// serialized with an RWMutex: the slot is a shared mutable resource and a
// save racing a load would hand the predictor a torn artifact.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the artifact slot location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, artifactFileName)
}

// Exists reports whether an artifact occupies the slot.
func (s *Store) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path())
	return err == nil
}

// Save atomically writes the artifact to the slot: encode to a temp file in
// the same directory, then rename over the slot.
func (s *Store) Save(artifact *Artifact) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, artifactFileName+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp artifact file: %w", err)
	}
	tmpPath := tmp.Name()

	encoder := json.NewEncoder(tmp)
	if err := encoder.Encode(artifact); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to encode model artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp artifact file: %w", err)
	}

	path := s.Path()
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to replace model artifact: %w", err)
	}

	return path, nil
}

// Load reads the current artifact. Returns ErrArtifactMissing when the slot
// is empty; any other failure is a serialization fault and propagates.
func (s *Store) Load() (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(s.Path())
	if os.IsNotExist(err) {
		return nil, ErrArtifactMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open model artifact: %w", err)
	}
	defer file.Close()

	var artifact Artifact
	if err := json.NewDecoder(file).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}

	return &artifact, nil
}
