// Package scheme maps deobfuscation scheme identifiers to their decoder and
// formatter pair and dispatches one deobfuscation attempt end to end. It owns
// the failure taxonomy: an unknown scheme yields *InvalidSchemeError, and any
// error or panic raised by a scheme's collaborators yields *DeobfuscationFailError.
// The package never logs, prints, or touches files.
package scheme
