package diskimage

import (
	"testing"

	"cbmdisk/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S5: custom X64 round-trip.
func TestCustomX64RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/weird.x64"

	params := geometry.CustomParams{
		DOSType:        0x3A,
		HdrDirTrack:    1,
		DirInterleave:  1,
		FileInterleave: 11,
		BAMLabelOffset: 4,
		Zones:          [4]geometry.Zone{{HighTrack: 35, SectorsPerTrack: 17}},
	}

	img, err := CreateCustom(path, params, "WEIRD", "ID")
	require.NoError(t, err)
	require.NoError(t, img.Save(""))

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, reloaded.isCustom)

	got := reloaded.geometry.ToCustomParams()
	assert.Equal(t, params, got)
}

// S6: 9000-series link round trip. Uses a track below 64, the only range
// address.go's adjustRead/adjustWrite pair is a true involution over (see
// its doc comment and DESIGN.md's Open Question on link adjustment); a
// track at or above 64 loses bits in the raw byte pair and is covered
// separately by TestLinkAdjustLossyDiagnostic below.
func TestNinetySeriesLinkRoundTrip(t *testing.T) {
	img, err := Create("t.d99", geometry.D9090, "NINETY", "01")
	require.NoError(t, err)

	require.NoError(t, img.WriteTSLink(1, 0, geometry.TS{Track: 32, Sector: 1}))

	off, err := img.geometry.GetSectorOffset(1, 0)
	require.NoError(t, err)
	rawT := img.buf[off*geometry.BlockSize]
	rawS := img.buf[off*geometry.BlockSize+1]
	assert.Equal(t, byte(0x80), rawT)
	assert.Equal(t, byte(0x01), rawS)

	link, err := img.ReadTSLink(1, 0)
	require.NoError(t, err)
	assert.Equal(t, geometry.TS{Track: 32, Sector: 1}, link)
}

// A 9000-series link whose track is >= 64 cannot survive the raw byte pair
// (adjustWrite only has 8 bits of rawT to store track<<2 into) and is
// expected to surface as a diagnostic rather than fail silently.
func TestLinkAdjustLossyDiagnostic(t *testing.T) {
	img, err := Create("t.d99", geometry.D9090, "NINETY", "01")
	require.NoError(t, err)

	require.NoError(t, img.WriteTSLink(1, 0, geometry.TS{Track: 200, Sector: 3}))

	link, err := img.ReadTSLink(1, 0)
	require.NoError(t, err)
	assert.NotEqual(t, geometry.TS{Track: 200, Sector: 3}, link)

	found := false
	for _, d := range img.Diagnostics() {
		if d.Code == "link-adjust-lossy" {
			found = true
		}
	}
	assert.True(t, found, "expected a link-adjust-lossy diagnostic for a track >= 64 9000-series link")
}

func TestNinetySeriesRawLinkDecode(t *testing.T) {
	// Boundary property: raw link bytes (0x83, 0xC1) decode to (32, 1).
	track, sector := adjustRead(0x83, 0xC1)
	assert.EqualValues(t, 32, track)
	assert.EqualValues(t, 1, sector)
}

// decodeCustomBlock/encodeCustomBlock must round-trip a zone-stealing
// (9000-series) custom geometry where a zone's high track exceeds 255 and
// needs its top bits packed into the sectors-per-track byte (spec.md §6).
func TestCustomBlockZoneStealingRoundTrip(t *testing.T) {
	params := geometry.CustomParams{
		DOSType:         0x3A,
		HdrDirTrack:     2,
		BAMLocationFlag: geometry.StealsFromZones,
		Zones:           [4]geometry.Zone{{HighTrack: 454, SectorsPerTrack: 32}},
	}

	encoded := encodeCustomBlock(params)
	decoded, err := decodeCustomBlock(encoded)
	require.NoError(t, err)
	assert.Equal(t, params.Zones[0], decoded.Zones[0])
}

func TestX64DeviceByteSelection(t *testing.T) {
	body := make([]byte, geometry.D1571.SectorCount()*geometry.BlockSize)
	wrapped := WrapX64(geometry.D1571, body, false)

	assert.True(t, IsX64(wrapped))
	g, inner, err := UnwrapX64(wrapped)
	require.NoError(t, err)
	assert.Equal(t, "D71", g.Format)
	assert.Equal(t, len(body), len(inner))
}
