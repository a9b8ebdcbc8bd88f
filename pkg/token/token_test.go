package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		b    byte
		want Kind
	}{
		{'>', MovePtrRight},
		{'<', MovePtrLeft},
		{'+', Increment},
		{'-', Decrement},
		{'.', Output},
		{',', Input},
		{'[', LoopStart},
		{']', LoopEnd},
	}

	for _, tt := range tests {
		t.Run(tt.want.Name(), func(t *testing.T) {
			got, ok := Lookup(tt.b)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.b, got.Symbol())
			assert.Equal(t, string(tt.b), got.String())
		})
	}
}

func TestLookup_Commentary(t *testing.T) {
	count := 0
	for b := 0; b < 256; b++ {
		if _, ok := Lookup(byte(b)); ok {
			count++
		}
	}
	assert.Equal(t, 8, count)

	for _, b := range []byte("abc XYZ\n\t0#!{}()") {
		_, ok := Lookup(b)
		assert.False(t, ok, "byte %q should be commentary", b)
	}
}

func TestKind_Unknown(t *testing.T) {
	k := Kind(42)
	assert.Equal(t, "KIND(42)", k.String())
	assert.Equal(t, "KIND(42)", k.Name())
}

func TestPosition(t *testing.T) {
	assert.Equal(t, "3:7", Position{Line: 3, Column: 7, Offset: 20}.String())
	assert.True(t, Position{Line: 1, Column: 1}.IsValid())

	p := Position{Offset: 5}
	assert.False(t, p.IsValid())
	assert.Equal(t, "offset 5", p.String())
}

func TestToken_String(t *testing.T) {
	tok := Token{Kind: LoopStart, Pos: Position{Line: 2, Column: 4, Offset: 9}}
	assert.Equal(t, "[@2:4", tok.String())
}
