package petscii

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadTrimRoundTrip(t *testing.T) {
	got := Trim(Pad("HELLO", 16))
	assert.Equal(t, "HELLO", got)
}

func TestPadUpperCasesAndPads(t *testing.T) {
	buf := Pad("test", 8)
	require.Len(t, buf, 8)
	assert.Equal(t, []byte("TEST"), buf[:4])
	for _, b := range buf[4:] {
		assert.Equal(t, byte(PadByte), b)
	}
}

func TestPadPanicsOnOverflow(t *testing.T) {
	assert.Panics(t, func() { Pad("TOOLONG", 4) })
}

func TestTrimStripsNulAndA0(t *testing.T) {
	buf := []byte{'A', 'B', 0x00, 0xA0, 0xA0}
	assert.Equal(t, "AB", Trim(buf))
}

func TestRawIsIndependentCopy(t *testing.T) {
	buf := []byte{1, 2, 3}
	raw := Raw(buf)
	raw[0] = 9
	assert.Equal(t, byte(1), buf[0])
}
