// Package config holds the engine thresholds and their project-local
// overrides.
//
// Every numeric cut-off the diagnostic rules use lives here so no call site
// carries a magic literal. A project can pin its own thresholds by saving a
// moodcheck.json at its root; absent that, defaults apply.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// Dir is the directory the config file lives in, relative to the
	// project root.
	Dir = ".moodcheck"
	// File is the config file name.
	File = "moodcheck.json"
)

// EngineConfig carries the tunable thresholds for a diagnostic pass.
type EngineConfig struct {
	// MinCompositeScore is the leaderboard floor for the fit-vs-impossible
	// conflict rule (boundary inclusive).
	MinCompositeScore float64 `json:"min_composite_score"`
	// ResidualVarianceThreshold triggers the PCA residual signal.
	ResidualVarianceThreshold float64 `json:"residual_variance_threshold"`
	// RequireCorroboration controls the diffuse-PCA downgrade.
	RequireCorroboration bool `json:"require_corroboration"`
	// RedundantSimilarity and OverlapSimilarity are the Jaccard cut-offs
	// for recommendation relationship linking.
	RedundantSimilarity float64 `json:"redundant_similarity"`
	OverlapSimilarity   float64 `json:"overlap_similarity"`
	// WorstFitCount is how many worst-reconstructed prototypes the diffuse
	// rule names.
	WorstFitCount int `json:"worst_fit_count"`
	// UpdatedAt is refreshed on every save (RFC3339).
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Default returns the standard thresholds.
func Default() EngineConfig {
	return EngineConfig{
		MinCompositeScore:         0.30,
		ResidualVarianceThreshold: 0.15,
		RequireCorroboration:      true,
		RedundantSimilarity:       0.70,
		OverlapSimilarity:         0.30,
		WorstFitCount:             5,
	}
}

// --- Path helpers ---

// Path returns the config directory for a project root.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, Dir)
}

// FilePath returns the config file path for a project root.
func FilePath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, File)
}

// Exists reports whether a project has a saved config.
func Exists(projectRoot string) bool {
	_, err := os.Stat(FilePath(projectRoot))
	return err == nil
}

// --- FileStore ---

// FileStore persists EngineConfig as JSON under the project root.
type FileStore struct{}

// NewFileStore creates a FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Save writes the config, creating the directory if needed, and refreshes
// UpdatedAt.
func (fs *FileStore) Save(projectRoot string, cfg *EngineConfig) error {
	if err := os.MkdirAll(Path(projectRoot), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	cfg.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(FilePath(projectRoot), data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Load reads a project's saved config. Missing file is an error; callers
// that want defaults check Exists first or use LoadOrDefault.
func (fs *FileStore) Load(projectRoot string) (*EngineConfig, error) {
	data, err := os.ReadFile(FilePath(projectRoot))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("project not initialized: no %s found", File)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg EngineConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", File, err)
	}
	return &cfg, nil
}

// LoadOrDefault returns the saved config when present, defaults otherwise.
func (fs *FileStore) LoadOrDefault(projectRoot string) EngineConfig {
	cfg, err := fs.Load(projectRoot)
	if err != nil {
		return Default()
	}
	return *cfg
}
