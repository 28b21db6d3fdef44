// Package updater checks GitHub Releases (or a configured mirror of the
// releases API) for a newer vipyr-deobf version. It only reports; installing
// the new release is left to the user's package manager. A daily-cached
// check powers the startup banner.
package updater
