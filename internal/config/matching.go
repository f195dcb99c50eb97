package config

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// MatchWeights are the per-field weights of the resolver confidence score
type MatchWeights struct {
	Title  float64 `toml:"title"`
	Artist float64 `toml:"artist"`
	Album  float64 `toml:"album"`
}

// MatchingConfig holds the tunables of the resolver and ranker.
// Defaults are starting values, not constants derived from labeled data.
type MatchingConfig struct {
	// A candidate must score strictly above this to count as a match
	Threshold float64 `toml:"threshold"`

	Weights MatchWeights `toml:"weights"`

	// How many target-platform candidates the resolver inspects
	ResolveLimit int `toml:"resolve_limit"`

	// Lower values win ranking ties; sources missing from the map sort last
	SourcePreference map[string]int `toml:"source_preference"`

	// Appended to the user query before it is sent to a source
	QuerySuffix map[string]string `toml:"query_suffix"`
}

// DefaultMatchingConfig returns hard-coded safe defaults
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		Threshold:    0.7,
		Weights:      MatchWeights{Title: 0.4, Artist: 0.4, Album: 0.2},
		ResolveLimit: 5,
		SourcePreference: map[string]int{
			"spotify":     0,
			"combined":    1,
			"apple_music": 2,
			"tidal":       3,
			"youtube":     4,
		},
		QuerySuffix: map[string]string{
			"youtube": " music",
		},
	}
}

var (
	matchingCfg     *MatchingConfig
	matchingCfgOnce sync.Once
	matchingCfgMu   sync.RWMutex
)

// GetMatchingConfig loads the matching config from TOML if MATCHING_CONFIG_PATH is set.
// Falls back to defaults if the env var is unset or the file cannot be read/parsed.
func GetMatchingConfig() *MatchingConfig {
	matchingCfgOnce.Do(func() {
		cfg := DefaultMatchingConfig()
		if path := os.Getenv("MATCHING_CONFIG_PATH"); path != "" {
			if fileCfg, err := LoadMatchingConfig(path); err == nil && fileCfg != nil {
				mergeMatchingConfig(cfg, fileCfg)
			} else if err != nil {
				slog.Warn("matching config: failed to load, using defaults", "path", path, "error", err)
			}
		} else {
			for _, p := range candidateMatchingConfigPaths() {
				if fileCfg, err := LoadMatchingConfig(p); err == nil && fileCfg != nil {
					mergeMatchingConfig(cfg, fileCfg)
					break
				}
			}
		}
		matchingCfgMu.Lock()
		matchingCfg = cfg
		matchingCfgMu.Unlock()
	})
	matchingCfgMu.RLock()
	cfg := matchingCfg
	matchingCfgMu.RUnlock()
	return cfg
}

// LoadMatchingConfig reads a TOML file. A missing file yields nil, nil.
func LoadMatchingConfig(path string) (*MatchingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var cfg MatchingConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveMatchingConfig merges a file config over the defaults
func ResolveMatchingConfig(override *MatchingConfig) *MatchingConfig {
	cfg := DefaultMatchingConfig()
	mergeMatchingConfig(cfg, override)
	return cfg
}

func mergeMatchingConfig(base, override *MatchingConfig) {
	if override == nil || base == nil {
		return
	}
	if override.Threshold > 0 && override.Threshold <= 1 {
		base.Threshold = override.Threshold
	}
	w := override.Weights
	if w.Title >= 0 && w.Artist >= 0 && w.Album >= 0 && w.Title+w.Artist+w.Album > 0 {
		base.Weights = w
	}
	if override.ResolveLimit > 0 {
		base.ResolveLimit = override.ResolveLimit
	}
	if override.SourcePreference != nil {
		if base.SourcePreference == nil {
			base.SourcePreference = map[string]int{}
		}
		for k, v := range override.SourcePreference {
			base.SourcePreference[k] = v
		}
	}
	if override.QuerySuffix != nil {
		if base.QuerySuffix == nil {
			base.QuerySuffix = map[string]string{}
		}
		for k, v := range override.QuerySuffix {
			base.QuerySuffix[k] = v
		}
	}
}

// candidateMatchingConfigPaths returns common locations to auto-discover the matching config
func candidateMatchingConfigPaths() []string {
	paths := []string{
		"matching.toml",
		filepath.Join("config", "matching.toml"),
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "mixmate", "matching.toml"))
	}

	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", "mixmate", "matching.toml"))
	}

	paths = append(paths, filepath.Join(string(os.PathSeparator), "etc", "mixmate", "matching.toml"))
	return paths
}

// StartMatchingConfigWatcher polls the matching config file for changes and reloads it.
// If a path is provided via MATCHING_CONFIG_PATH, that is used. Otherwise, the first
// existing path from candidateMatchingConfigPaths is used. If no file exists, the
// watcher is a no-op.
func StartMatchingConfigWatcher(ctx context.Context, interval time.Duration) {
	var paths []string
	if explicit := os.Getenv("MATCHING_CONFIG_PATH"); explicit != "" {
		paths = append(paths, explicit)
	} else {
		paths = append(paths, candidateMatchingConfigPaths()...)
	}

	var watchPath string
	var lastModTime time.Time
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			watchPath = p
			lastModTime = fi.ModTime()
			break
		}
	}
	if watchPath == "" {
		slog.Info("matching config watcher: no config file found; using defaults")
		return
	}

	slog.Info("matching config watcher: watching file", "path", watchPath)

	// make sure the first load has happened so a reload is never overwritten by it
	GetMatchingConfig()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("matching config watcher: stopped")
				return
			case <-ticker.C:
				fi, err := os.Stat(watchPath)
				if err != nil || fi.IsDir() {
					continue
				}
				if !fi.ModTime().After(lastModTime) {
					continue
				}
				fileCfg, err := LoadMatchingConfig(watchPath)
				if err != nil || fileCfg == nil {
					slog.Warn("matching config reload failed", "path", watchPath, "error", err)
					continue
				}
				newCfg := ResolveMatchingConfig(fileCfg)
				matchingCfgMu.Lock()
				matchingCfg = newCfg
				matchingCfgMu.Unlock()
				lastModTime = fi.ModTime()
				slog.Info("matching config reloaded", "path", watchPath, "mtime", lastModTime, "threshold", newCfg.Threshold)
			}
		}
	}()
}
