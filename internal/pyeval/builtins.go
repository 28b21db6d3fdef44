package pyeval

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// MaxOutput bounds the size of any single decompressed or decoded value.
const MaxOutput = 64 << 20

// ErrOutputTooLarge is returned when a decompressor exceeds MaxOutput.
var ErrOutputTooLarge = errors.New("decoded output exceeds size limit")

var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// Builtins returns a fresh copy of the callables the obfuscators rely on.
func Builtins() Funcs {
	return maps.Clone(builtins)
}

var builtins = Funcs{
	"chr":        builtinChr,
	"bytes":      builtinBytes,
	"str":        builtinStr,
	"bytearray":  builtinBytes,
	"__import__": builtinImport,
	"map": func([]Value, map[string]Value) (Value, error) {
		return nil, errors.New("map is applied by the evaluator")
	},

	"bytes.fromhex":            bytesFunc(hexDecode),
	"binascii.unhexlify":       bytesFunc(hexDecode),
	"binascii.a2b_hex":         bytesFunc(hexDecode),
	"binascii.a2b_base64":      bytesFunc(Base64Decode),
	"base64.b64decode":         bytesFunc(Base64Decode),
	"base64.urlsafe_b64decode": bytesFunc(Base64Decode),
	"base64.b32decode":         bytesFunc(base32Decode),
	"base64.b16decode":         bytesFunc(hexDecode),
	"base64.a85decode":         bytesFunc(ascii85Decode),
	"zlib.decompress":          bytesFunc(ZlibDecompress),
	"gzip.decompress":          bytesFunc(gzipDecompress),
	"bz2.decompress":           bytesFunc(bzip2Decompress),
	"lzma.decompress":          bytesFunc(LZMADecompress),
	"codecs.decode":            codecsDecode,
}

func bytesFunc(fn func([]byte) ([]byte, error)) Func {
	return func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) == 0 {
			return nil, errors.New("missing required argument")
		}
		in, err := AsBytes(args[0])
		if err != nil {
			return nil, err
		}
		out, err := fn(in)
		if err != nil {
			return nil, err
		}
		return Bytes(out), nil
	}
}

func builtinChr(args []Value, _ map[string]Value) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	n, err := AsInt(args[0])
	if err != nil {
		return nil, err
	}
	if n < 0 || n > utf8.MaxRune {
		return nil, fmt.Errorf("arg %d not in range", n)
	}
	return Str(string(rune(n))), nil
}

func builtinBytes(args []Value, kwargs map[string]Value) (Value, error) {
	if len(args) == 0 {
		return Bytes{}, nil
	}
	switch x := args[0].(type) {
	case Bytes:
		return append(Bytes(nil), x...), nil
	case Str:
		return encodeText(x, encodingArg(args[1:], kwargs))
	case List:
		out := make(Bytes, len(x))
		for i, v := range x {
			n, err := AsInt(v)
			if err != nil {
				return nil, err
			}
			if n < 0 || n > 255 {
				return nil, fmt.Errorf("bytes must be in range(0, 256), got %d", n)
			}
			out[i] = byte(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot convert %s to bytes", TypeName(args[0]))
	}
}

func builtinStr(args []Value, kwargs map[string]Value) (Value, error) {
	if len(args) == 0 {
		return Str(""), nil
	}
	switch x := args[0].(type) {
	case Str:
		return x, nil
	case Bytes:
		if len(args) < 2 && kwargs["encoding"] == nil {
			return nil, errors.New("str(bytes) without an encoding is not supported")
		}
		return decodeText(x, encodingArg(args[1:], kwargs))
	case Int:
		return Str(fmt.Sprint(int64(x))), nil
	default:
		return nil, fmt.Errorf("cannot convert %s to str", TypeName(args[0]))
	}
}

func builtinImport(args []Value, _ map[string]Value) (Value, error) {
	if len(args) == 0 {
		return nil, errors.New("missing module name")
	}
	name, ok := args[0].(Str)
	if !ok {
		return nil, fmt.Errorf("module name must be str, got %s", TypeName(args[0]))
	}
	return Module(name), nil
}

func codecsDecode(args []Value, kwargs map[string]Value) (Value, error) {
	if len(args) == 0 {
		return nil, errors.New("missing required argument")
	}
	enc := encodingArg(args[1:], kwargs)
	switch enc {
	case "rot13", "rot-13":
		s, ok := args[0].(Str)
		if !ok {
			return nil, fmt.Errorf("rot13 expects str, got %s", TypeName(args[0]))
		}
		return Str(rot13(string(s))), nil
	case "hex", "hex-codec":
		return bytesFunc(hexDecode)(args[:1], nil)
	case "base64", "base64-codec", "base-64":
		return bytesFunc(Base64Decode)(args[:1], nil)
	case "zlib", "zlib-codec", "zip":
		return bytesFunc(ZlibDecompress)(args[:1], nil)
	case "bz2", "bz2-codec":
		return bytesFunc(bzip2Decompress)(args[:1], nil)
	default:
		b, ok := args[0].(Bytes)
		if !ok {
			return nil, fmt.Errorf("unsupported codec %q for %s", enc, TypeName(args[0]))
		}
		return decodeText(b, enc)
	}
}

func rot13(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+13)%26
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+13)%26
		default:
			return r
		}
	}, s)
}

func hexDecode(b []byte) ([]byte, error) {
	clean := strings.Join(strings.Fields(string(b)), "")
	return hex.DecodeString(clean)
}

// Base64Decode decodes standard or URL-safe base64 the way Python's
// b64decode does by default: characters outside the alphabet are discarded
// and missing padding is tolerated.
func Base64Decode(b []byte) ([]byte, error) {
	clean := make([]byte, 0, len(b))
	urlSafe := false
	for _, c := range b {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '+', c == '/':
			clean = append(clean, c)
		case c == '-' || c == '_':
			urlSafe = true
			clean = append(clean, c)
		}
	}
	enc := base64.RawStdEncoding
	if urlSafe {
		enc = base64.RawURLEncoding
	}
	return enc.DecodeString(string(clean))
}

func base32Decode(b []byte) ([]byte, error) {
	clean := strings.TrimRight(strings.Join(strings.Fields(string(b)), ""), "=")
	return base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(clean)
}

func ascii85Decode(b []byte) ([]byte, error) {
	s := strings.TrimSuffix(strings.TrimPrefix(string(b), "<~"), "~>")
	out := make([]byte, 4*len(s)+4)
	n, _, err := ascii85.Decode(out, []byte(s), true)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// ZlibDecompress inflates a zlib stream.
func ZlibDecompress(b []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readLimited(r)
}

func gzipDecompress(b []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readLimited(r)
}

func bzip2Decompress(b []byte) ([]byte, error) {
	return readLimited(bzip2.NewReader(bytes.NewReader(b)))
}

// LZMADecompress decompresses data the way Python's lzma.decompress does
// with the default FORMAT_AUTO: an .xz container when the stream starts with
// the xz magic, the legacy .lzma format otherwise.
func LZMADecompress(b []byte) ([]byte, error) {
	var (
		r   io.Reader
		err error
	)
	if bytes.HasPrefix(b, xzMagic) {
		r, err = xz.NewReader(bytes.NewReader(b))
	} else {
		r, err = lzma.NewReader(bytes.NewReader(b))
	}
	if err != nil {
		return nil, err
	}
	return readLimited(r)
}

func readLimited(r io.Reader) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, MaxOutput+1))
	if err != nil {
		return nil, err
	}
	if len(out) > MaxOutput {
		return nil, ErrOutputTooLarge
	}
	return out, nil
}
