// Package config manages user-level settings stored at
// ~/.vipyr-deobf/config.yaml: the default scheme, output colour, logging,
// extra scheme aliases, and the release API mirror used by update checks.
// Environment variables prefixed VIPYR_DEOBF_ override file values.
package config
