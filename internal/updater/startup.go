package updater

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vipyr-labs/deobf/internal/branding"
)

// Banner prints a notice when the cached check saw a newer release. It never
// touches the network; a stale cache is refreshed by Refresh.
func (u *Updater) Banner(w io.Writer, configDir string) (stale bool) {
	if !IsRelease(u.currentVersion) {
		return false
	}
	cache, err := LoadCache(configDir)
	if err != nil {
		return true
	}
	if cache != nil && cache.CurrentVersion == u.currentVersion && cache.UpdateAvailable {
		PrintUpdateBanner(w, cache.CurrentVersion, cache.LatestVersion, cache.URL)
	}
	return IsCacheStale(cache, u.currentVersion, DefaultCacheMaxAge)
}

// PrintUpdateBanner prints the update notification to w.
func PrintUpdateBanner(w io.Writer, current, latest, url string) {
	fmt.Fprintf(w, "\n%s %s -> %s available\n", branding.DisplayName(), current, latest)
	if url != "" {
		fmt.Fprintf(w, "    %s\n", url)
	}
	fmt.Fprintln(w)
}

// Refresh runs a release check and stores the result for the next banner.
func (u *Updater) Refresh(ctx context.Context, configDir string) (*CheckResult, error) {
	res, err := u.Check(ctx)
	if err != nil {
		return nil, err
	}
	if err := SaveCache(configDir, cacheFrom(res, time.Now())); err != nil {
		return res, err
	}
	return res, nil
}
