package updater

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	cacheFileName = "release-check.json"
	// DefaultCacheMaxAge is how long a release check is trusted.
	DefaultCacheMaxAge = 24 * time.Hour
)

// VersionCache holds the last release check.
type VersionCache struct {
	LatestVersion   string    `json:"latest_version"`
	CurrentVersion  string    `json:"current_version"`
	CheckedAt       time.Time `json:"checked_at"`
	UpdateAvailable bool      `json:"update_available"`
	URL             string    `json:"url,omitempty"`
}

// LoadCache reads the cache from configDir. Returns nil, nil on first run.
func LoadCache(configDir string) (*VersionCache, error) {
	data, err := os.ReadFile(filepath.Join(configDir, cacheFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading version cache: %w", err)
	}

	var cache VersionCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("parsing version cache: %w", err)
	}
	return &cache, nil
}

// SaveCache writes the cache to configDir.
func SaveCache(configDir string, cache *VersionCache) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling version cache: %w", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, cacheFileName), data, 0644); err != nil {
		return fmt.Errorf("writing version cache: %w", err)
	}
	return nil
}

// IsCacheStale returns true if the cache is nil, older than maxAge, or was
// written by a different binary version.
func IsCacheStale(cache *VersionCache, current string, maxAge time.Duration) bool {
	if cache == nil || cache.CurrentVersion != current {
		return true
	}
	return time.Since(cache.CheckedAt) > maxAge
}

func cacheFrom(res *CheckResult, at time.Time) *VersionCache {
	return &VersionCache{
		LatestVersion:   res.Latest,
		CurrentVersion:  res.Current,
		CheckedAt:       at,
		UpdateAvailable: res.UpdateAvailable,
		URL:             res.URL,
	}
}
