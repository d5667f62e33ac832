package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestD1541Basics(t *testing.T) {
	require.EqualValues(t, 683, D1541.SectorCount())
	require.EqualValues(t, 35, D1541.TrackCount())
	require.EqualValues(t, 21, D1541.MaxSectorsInTrack())
	require.EqualValues(t, 3, D1541.BAMSectorBytes()) // ceil(21/8)
}

func TestSectorsPerTrackZoneLookup(t *testing.T) {
	cases := []struct {
		track uint16
		want  uint8
	}{
		{1, 21}, {17, 21}, {18, 19}, {24, 19}, {25, 18}, {30, 18}, {31, 17}, {35, 17},
	}
	for _, c := range cases {
		got, err := D1541.SectorsPerTrack(c.track)
		require.NoError(t, err)
		assert.Equalf(t, c.want, got, "track %d", c.track)
	}

	_, err := D1541.SectorsPerTrack(36)
	assert.ErrorIs(t, err, ErrBadTrackSector)
}

func TestGetSectorOffsetMonotonic(t *testing.T) {
	off1, err := D1541.GetSectorOffset(18, 0)
	require.NoError(t, err)
	off2, err := D1541.GetSectorOffset(18, 1)
	require.NoError(t, err)
	assert.Equal(t, off1+1, off2)

	// Cumulative sum up to track 18 sector 0: zone1 (1-17)*21 = 357.
	assert.Equal(t, 357, off1)

	last, err := D1541.GetSectorOffset(35, 16)
	require.NoError(t, err)
	assert.Less(t, last, D1541.SectorCount())
}

func TestBAMPositionByLocationPolicy(t *testing.T) {
	assert.Equal(t, TS{18, 0}, D1541.BAMPosition())
	assert.Equal(t, TS{40, 1}, D1581.BAMPosition())
	assert.Equal(t, TS{17, 0}, D2040.BAMPosition())
	assert.Equal(t, TS{1, 0}, D9030.BAMPosition()) // header track 2 - 1
}

func TestDoubleSidedZoneFolding(t *testing.T) {
	// Track 36 on the 1571 mirrors track 1's zone (21 sectors/track).
	got, err := D1571.SectorsPerTrack(36)
	require.NoError(t, err)
	assert.EqualValues(t, 21, got)

	got, err = D1571.SectorsPerTrack(53)
	require.NoError(t, err)
	assert.EqualValues(t, 19, got)
}

func TestSelectByExtension(t *testing.T) {
	g, ok := SelectByExtension("game.D64")
	require.True(t, ok)
	assert.Equal(t, "D64", g.Format)

	g, ok = SelectByExtension("archive.d81")
	require.True(t, ok)
	assert.Equal(t, "D81", g.Format)

	_, ok = SelectByExtension("notes.txt")
	assert.False(t, ok)
}

func TestCustomParamsRoundTrip(t *testing.T) {
	params := CustomParams{
		DOSType:        0x3A,
		HdrDirTrack:    1,
		DirInterleave:  1,
		FileInterleave: 11,
		BAMLabelOffset: 4,
		Zones:          [maxZones]Zone{{35, 17}},
	}
	g := FromCustomParams(params)
	got := g.ToCustomParams()
	assert.Equal(t, params, got)
	assert.Equal(t, [2]byte{'3', 'A'}, g.DOSType)
}
