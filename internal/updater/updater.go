package updater

import (
	"net/http"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.github.com"

// Release is the subset of a GitHub release the checker reads.
type Release struct {
	Version   string    `json:"tag_name"`
	Name      string    `json:"name"`
	Published time.Time `json:"published_at"`
	HTMLURL   string    `json:"html_url"`
}

// CheckResult is the outcome of comparing the running version with the
// latest release.
type CheckResult struct {
	Current         string `json:"current"`
	Latest          string `json:"latest"`
	UpdateAvailable bool   `json:"update_available"`
	URL             string `json:"url,omitempty"`
}

// Updater performs release checks.
type Updater struct {
	currentVersion string
	httpClient     *http.Client
	apiBase        string
}

// Option configures an Updater.
type Option func(*Updater)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Updater) {
		u.httpClient = c
	}
}

// WithMirror points the checker at a mirror of the GitHub releases API.
// An empty mirror keeps the default.
func WithMirror(mirror string) Option {
	return func(u *Updater) {
		if mirror != "" {
			u.apiBase = strings.TrimRight(mirror, "/")
		}
	}
}

// New creates an Updater for the given running version.
func New(currentVersion string, opts ...Option) *Updater {
	u := &Updater{
		currentVersion: currentVersion,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		apiBase:        defaultAPIBase,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CurrentVersion returns the version this updater was created with.
func (u *Updater) CurrentVersion() string {
	return u.currentVersion
}
