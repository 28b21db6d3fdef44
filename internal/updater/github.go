package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/vipyr-labs/deobf/internal/branding"
)

// ErrDevBuild is returned when the running binary has no release version to
// compare against.
var ErrDevBuild = errors.New("development build, no release version to compare")

// LatestRelease fetches the latest published release.
func (u *Updater) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", u.apiBase, branding.GitHubRepo())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", branding.CLIName()+"-updater")
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching release: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("no published release found")
	case http.StatusForbidden:
		return nil, fmt.Errorf("GitHub API rate limit exceeded. Set GITHUB_TOKEN for higher limits")
	default:
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var release Release
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, fmt.Errorf("parsing release JSON: %w", err)
	}
	if release.Version == "" {
		return nil, fmt.Errorf("release has no tag")
	}
	return &release, nil
}

// Check compares the running version with the latest release.
func (u *Updater) Check(ctx context.Context) (*CheckResult, error) {
	if !IsRelease(u.currentVersion) {
		return nil, ErrDevBuild
	}

	release, err := u.LatestRelease(ctx)
	if err != nil {
		return nil, err
	}
	available, err := IsUpdateAvailable(u.currentVersion, release.Version)
	if err != nil {
		return nil, err
	}
	return &CheckResult{
		Current:         u.currentVersion,
		Latest:          release.Version,
		UpdateAvailable: available,
		URL:             release.HTMLURL,
	}, nil
}
