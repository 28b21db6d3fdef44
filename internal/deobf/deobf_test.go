package deobf

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vipyr-labs/deobf/internal/pyeval"
)

func hexLayer(src string) string {
	return "exec(bytes.fromhex('" + hex.EncodeToString([]byte(src)) + "').decode())"
}

func TestPeel(t *testing.T) {
	src := hexLayer(hexLayer("print(1)"))
	p := &Peeler{Funcs: pyeval.Builtins()}

	layers, out, err := p.Peel(src)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", out)
	assert.Len(t, layers, 2)
	assert.Equal(t, []string{"bytes.fromhex"}, layers[0].Steps)
}

func TestPeel_Limit(t *testing.T) {
	src := "print(1)"
	for i := 0; i < 4; i++ {
		src = hexLayer(src)
	}

	_, _, err := (&Peeler{Funcs: pyeval.Builtins(), Limit: 3}).Peel(src)
	assert.ErrorIs(t, err, ErrTooManyLayers)

	layers, out, err := (&Peeler{Funcs: pyeval.Builtins(), Limit: 4}).Peel(src)
	require.NoError(t, err)
	assert.Len(t, layers, 4)
	assert.Equal(t, "print(1)", out)
}

func TestPeel_Accept(t *testing.T) {
	p := &Peeler{
		Funcs:  pyeval.Builtins(),
		Accept: func(trace []string) bool { return false },
	}
	_, _, err := p.Peel(hexLayer("x"))
	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestPeel_SkipsUndecodableCalls(t *testing.T) {
	src := "exec(open('x').read())\n" + hexLayer("print(2)")
	layers, out, err := (&Peeler{Funcs: pyeval.Builtins()}).Peel(src)
	require.NoError(t, err)
	assert.Len(t, layers, 1)
	assert.Equal(t, "print(2)", out)
}

func TestPeel_StopsAtUndecodableInnerLayer(t *testing.T) {
	src := hexLayer("exec(secret())")
	layers, out, err := (&Peeler{Funcs: pyeval.Builtins()}).Peel(src)
	require.NoError(t, err)
	assert.Len(t, layers, 1)
	assert.Equal(t, "exec(secret())", out)
}

func TestPeel_InnerLayerFailureIsFatal(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad hex", hexLayer("exec(bytes.fromhex('zz').decode())")},
		{"unknown name before bad hex", hexLayer("exec(secret())\nexec(bytes.fromhex('zz'))")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layers, _, err := (&Peeler{Funcs: pyeval.Builtins()}).Peel(tt.src)
			require.Error(t, err)
			assert.Nil(t, layers)
			assert.Contains(t, err.Error(), "layer 2")
			assert.Contains(t, err.Error(), "bytes.fromhex")
			assert.False(t, Exhausted(err))
		})
	}
}

func TestExhausted(t *testing.T) {
	_, err := pyeval.New(pyeval.Builtins()).Eval("secret()")
	assert.True(t, Exhausted(err))
	assert.True(t, Exhausted(fmt.Errorf("wrapped: %w", ErrNoPayload)))

	_, err = pyeval.New(pyeval.Builtins()).Eval("bytes.fromhex('zz')")
	assert.False(t, Exhausted(err))
	assert.False(t, Exhausted(pyeval.ErrOutputTooLarge))
}

func TestReadSource(t *testing.T) {
	got, err := ReadSource(strings.NewReader("print('é')"))
	require.NoError(t, err)
	assert.Equal(t, "print('é')", got)

	_, err = ReadSource(strings.NewReader("\xff\xfe"))
	assert.Error(t, err)
}
