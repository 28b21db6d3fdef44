// Package source opens deobfuscation input. Payloads arrive as files or on
// stdin, sometimes saved as UTF-16 or with a byte order mark; Open hands the
// dispatcher plain UTF-8 either way.
package source

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// ErrInvalidPath reports an input path that does not name a readable file.
var ErrInvalidPath = errors.New("not a valid path")

// PathError carries the offending path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s is not a valid path.", e.Path)
}

func (e *PathError) Unwrap() []error { return []error{ErrInvalidPath, e.Err} }

// Input is an opened source. Close releases the underlying file; it is a
// no-op for stdin.
type Input struct {
	io.Reader
	Name   string
	closer io.Closer
}

func (in *Input) Close() error {
	if in.closer == nil {
		return nil
	}
	return in.closer.Close()
}

// Open opens path, or stdin when path is "-", and decodes it to UTF-8.
func Open(path string, stdin io.Reader) (*Input, error) {
	if path == Stdin {
		return &Input{Reader: Decode(stdin), Name: "<stdin>"}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &PathError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &PathError{Path: path, Err: fs.ErrInvalid}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &PathError{Path: path, Err: err}
	}
	return &Input{Reader: Decode(f), Name: path, closer: f}, nil
}

// Decode wraps r so a UTF-8 or UTF-16 byte order mark selects the input
// encoding and is stripped. Input without a BOM passes through byte for byte;
// invalid UTF-8 is left for the reader to reject.
func Decode(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(encoding.Nop.NewDecoder()))
}
