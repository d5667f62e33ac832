package diskimage

import (
	"strconv"
	"testing"

	"cbmdisk/geometry"
	"cbmdisk/petscii"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1: create + list empty D64.
func TestCreateEmptyD1541(t *testing.T) {
	img, err := Create("t.d64", geometry.D1541, "TEST", "01")
	require.NoError(t, err)

	assert.Empty(t, img.Dir())
	assert.Equal(t, 664, img.BlocksFree())
	assert.Equal(t, 683, img.BlocksTotal())
	assert.Equal(t, [2]byte{'2', 'A'}, img.Header().DOSType)

	for s := uint8(0); s < 19; s++ {
		assert.Falsef(t, img.bam.BlockAvailable(18, s), "sector (18,%d) should be reserved", s)
	}
}

// S2: inject and extract.
func TestWriteProgramAndReadBack(t *testing.T) {
	img, err := Create("t.d64", geometry.D1541, "TEST", "01")
	require.NoError(t, err)

	payload := make([]byte, 40)
	payload[0], payload[1] = 0x01, 0x08

	freeBefore := img.BlocksFree()
	err = img.WriteProgram(payload, "HELLO", TypePRG, 24, 5, 1, 12, 0)
	require.NoError(t, err)
	assert.Equal(t, freeBefore-1, img.BlocksFree())

	active := img.Dir()[0]
	require.NotNil(t, active)
	assert.Equal(t, TypePRG, active.Type)
	assert.EqualValues(t, 1, active.Blocks)
	assert.Equal(t, uint8(41), active.LSU)

	link, err := img.ReadTSLink(active.FirstTrack, active.FirstSector)
	require.NoError(t, err)
	assert.Equal(t, geometry.TS{Track: 0, Sector: 41}, link)

	prog, err := img.ReadProgramByFilename("HELLO")
	require.NoError(t, err)
	assert.Equal(t, payload, prog.Bytes)
}

// S3: rename and save/reload.
func TestRenameSaveReload(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/t.d64"

	img, err := Create(path, geometry.D1541, "TEST", "01")
	require.NoError(t, err)
	require.NoError(t, img.WriteProgram([]byte{1, 2, 3}, "HELLO", TypePRG, 24, 5, 1, 12, 0))

	sizeBefore := len(img.buf)
	require.NoError(t, img.dir.Rename("HELLO", "WORLD"))
	require.NoError(t, img.Save(""))
	assert.Equal(t, sizeBefore, len(img.buf))

	reloaded, err := Load(path)
	require.NoError(t, err)
	entry := reloaded.Dir()[0]
	assert.Equal(t, "WORLD", entry.Name)
}

// S4 (property, not the literal boundary count): allocating past capacity
// fails with NoFreeBlocks, and every track's FSC still matches its bitmap
// afterwards.
func TestAllocateUntilFullFailsCleanly(t *testing.T) {
	img, err := Create("t.d64", geometry.D1541, "TEST", "01")
	require.NoError(t, err)

	payload := make([]byte, 254)
	i := 0
	var lastErr error
	for {
		name := "F" + strconv.Itoa(i)
		lastErr = img.WriteProgram(payload, name, TypePRG, 24, 1, 1, 0, 0)
		if lastErr != nil {
			break
		}
		i++
		if i > 700 { // guard against an infinite loop if allocation never fails
			t.Fatal("allocation never failed")
		}
	}

	var diskErr *DiskError
	require.ErrorAs(t, lastErr, &diskErr)
	assert.Equal(t, NoFreeBlocks, diskErr.Kind)

	for t2 := uint16(1); t2 <= img.geometry.Tracks; t2++ {
		e := img.bam.entries[t2]
		if e == nil {
			continue
		}
		popcount := 0
		for _, f := range e.Free {
			if f {
				popcount++
			}
		}
		assert.EqualValues(t, popcount, e.FSC, "track %d fsc/popcount mismatch after failed allocation", t2)
	}
}

func TestMarkBlocksRoundTrip(t *testing.T) {
	img, err := Create("t.d64", geometry.D1541, "TEST", "01")
	require.NoError(t, err)

	freeBefore := img.BlocksFree()
	list := []geometry.TS{{Track: 1, Sector: 0}, {Track: 1, Sector: 1}}
	require.NoError(t, img.bam.MarkBlocks(list, true))
	require.NoError(t, img.bam.MarkBlocks(list, false))
	assert.Equal(t, freeBefore, img.BlocksFree())
}

func TestDoubleAllocationRejected(t *testing.T) {
	img, err := Create("t.d64", geometry.D1541, "TEST", "01")
	require.NoError(t, err)

	list := []geometry.TS{{Track: 1, Sector: 0}}
	require.NoError(t, img.bam.MarkBlocks(list, true))
	err = img.bam.MarkBlocks(list, true)
	var diskErr *DiskError
	require.ErrorAs(t, err, &diskErr)
	assert.Equal(t, DoubleAlloc, diskErr.Kind)
}

func TestNameCollisionRejected(t *testing.T) {
	img, err := Create("t.d64", geometry.D1541, "TEST", "01")
	require.NoError(t, err)
	require.NoError(t, img.WriteProgram([]byte{1}, "DUP", TypePRG, 24, 1, 1, 0, 0))

	err = img.WriteProgram([]byte{2}, "DUP", TypePRG, 24, 1, 1, 0, 0)
	var diskErr *DiskError
	require.ErrorAs(t, err, &diskErr)
	assert.Equal(t, NameExists, diskErr.Kind)
}

func TestZeroLengthFileRejected(t *testing.T) {
	img, err := Create("t.d64", geometry.D1541, "TEST", "01")
	require.NoError(t, err)
	err = img.WriteProgram(nil, "EMPTY", TypePRG, 24, 1, 1, 0, 0)
	require.Error(t, err)
}

func TestMkdirCreatesBackReference(t *testing.T) {
	img, err := Create("t.d64", geometry.D1541, "TEST", "01")
	require.NoError(t, err)

	freeBefore := img.BlocksFree()
	require.NoError(t, img.Mkdir("SUBDIR"))
	assert.Equal(t, freeBefore-1, img.BlocksFree())

	idx := img.FindFile("SUBDIR")
	require.Greater(t, idx, 0)
	entry := img.Dir()[idx-1]
	assert.Equal(t, TypeDIR, entry.Type)

	block, err := img.ReadBlock(entry.FirstTrack, entry.FirstSector)
	require.NoError(t, err)
	back := parseDirEntryPayload(block[2:32])
	assert.Equal(t, "..", petscii.Trim(back.RawName))
	assert.EqualValues(t, img.geometry.HeaderTrack, back.FirstTrack)
}

func TestRevalidateBAMReclaimsTombstone(t *testing.T) {
	img, err := Create("t.d64", geometry.D1541, "TEST", "01")
	require.NoError(t, err)

	require.NoError(t, img.WriteProgram([]byte{1, 2, 3}, "GONE", TypePRG, 24, 1, 1, 0, 0))
	freeAfterWrite := img.BlocksFree()

	idx := img.FindFile("GONE")
	require.Greater(t, idx, 0)
	img.Dir()[idx-1].Type = 0 // tombstone: type cleared, blocks still allocated

	require.NoError(t, img.RevalidateBAM())
	assert.Greater(t, img.BlocksFree(), freeAfterWrite)
}
