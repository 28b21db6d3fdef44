// Package pyeval evaluates the narrow subset of Python expressions that
// script obfuscators use to hide a payload: string and bytes literals,
// integer lists, attribute access, calls into a fixed table of decoding
// functions, generator expressions, string concatenation and reversal slices.
//
// Nothing is executed. Every callable is a Go implementation registered in
// a Funcs table; an expression that names anything else fails to evaluate.
package pyeval
