package tape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		x, size, want int
	}{
		{0, 10, 0},
		{9, 10, 9},
		{10, 10, 0},
		{-1, 10, 9},
		{-11, 10, 9},
		{25, 10, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Wrap(tt.x, tt.size), "Wrap(%d, %d)", tt.x, tt.size)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		off, size, want int
	}{
		{0, 8, 0},
		{3, 8, 3},
		{4, 8, 4},
		{5, 8, -3},
		{-1, 8, -1},
		{-4, 8, 4},
		{8, 8, 0},
		{3, 7, 3},
		{4, 7, -3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.off, tt.size), "Normalize(%d, %d)", tt.off, tt.size)
	}
}

func TestParseEOFPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    EOFPolicy
		wantErr bool
	}{
		{in: "", want: EOFUnchanged},
		{in: "unchanged", want: EOFUnchanged},
		{in: " Zero ", want: EOFZero},
		{in: "minus-one", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEOFPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEOFPolicy_Text(t *testing.T) {
	text, err := EOFZero.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "zero", string(text))
	assert.Equal(t, "unchanged", EOFUnchanged.String())

	var p EOFPolicy
	require.NoError(t, p.UnmarshalText([]byte("zero")))
	assert.Equal(t, EOFZero, p)
	assert.Error(t, p.UnmarshalText([]byte("eof")))
	assert.Equal(t, EOFZero, p, "failed unmarshal leaves the value alone")
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Size: 0}.Validate())
	assert.Error(t, Config{Size: -5}.Validate())
	assert.Error(t, Config{Size: 8, EOF: EOFPolicy(7)}.Validate())
}

func TestTape(t *testing.T) {
	tp := New(4)
	assert.Equal(t, 4, tp.Size())
	assert.Equal(t, 0, tp.Pointer())

	tp.Add(0, 300)
	assert.Equal(t, byte(44), tp.Get(0))

	tp.Add(1, -1)
	assert.Equal(t, byte(255), tp.Get(1))

	tp.Move(-1)
	assert.Equal(t, 3, tp.Pointer())
	assert.Equal(t, 0, tp.Index(1))
	assert.Equal(t, byte(44), tp.Get(1))

	tp.Set(-1, 7)
	assert.Equal(t, byte(7), tp.Cell(2))
	assert.Equal(t, byte(7), tp.Cell(-2))

	tp.Move(6)
	assert.Equal(t, 1, tp.Pointer())

	assert.Equal(t, []byte{44, 255, 7, 0}, tp.Cells(0, 4))
	assert.Equal(t, []byte{0, 44}, tp.Cells(3, 5))

	tp.Reset()
	assert.Equal(t, 0, tp.Pointer())
	assert.Equal(t, []byte{0, 0, 0, 0}, tp.Cells(0, 4))
}
