// Package cli defines the Cobra command tree for vipyr-deobf. The root
// command deobfuscates a file; each other file in this package registers one
// subcommand (schemes, config, version, update). Commands delegate to internal
// packages and only handle flags, output formatting, and error presentation.
package cli
