package diskimage

import (
	"fmt"
	"strings"

	"cbmdisk/geometry"
	"cbmdisk/petscii"
)

// File type tags, per spec.md §3. A stored byte below 0x80 marks the slot
// unused.
const (
	TypeDEL byte = 0x80
	TypeSEQ byte = 0x81
	TypePRG byte = 0x82
	TypeUSR byte = 0x83
	TypeREL byte = 0x84
	TypeCBM byte = 0x85
	TypeDIR byte = 0x86
)

const dirEntrySize = 32
const dirEntriesPerBlock = 8

// DirEntry is one 32-byte directory slot, parsed into memory.
type DirEntry struct {
	Type        byte
	FirstTrack  uint16
	FirstSector uint8
	RawName     []byte // 16 bytes, PETSCII, 0xA0-padded
	Name        string // ASCII projection
	LSU         byte
	Year, Month, Day, Hour, Minute byte
	Blocks      uint16

	location geometry.TS // the directory block this entry lives in
	slot     int         // 0-7 within that block
}

// Active reports whether the slot holds a live (non-deleted, non-free)
// entry.
func (e *DirEntry) Active() bool {
	return e.Type >= TypeDEL
}

// Directory is the parsed directory chain for an Image.
type Directory struct {
	g       geometry.Geometry
	entries []*DirEntry
}

func newDirectory(g geometry.Geometry) *Directory {
	return &Directory{g: g}
}

// Parse walks the directory chain starting at (hdr_track,
// dir_sector_offset), decoding all eight slots of every visited block.
func (d *Directory) Parse(img *Image) error {
	chain, err := img.BuildChain(d.g.HeaderTrack, d.g.DirSectorOffset(), 0)
	if err != nil {
		return wrapErr(InvalidImage, "walk directory chain", err)
	}
	d.entries = nil
	for _, ts := range chain {
		block, err := img.ReadBlock(ts.Track, ts.Sector)
		if err != nil {
			return wrapErr(InvalidImage, "read directory block", err)
		}
		for slot := 0; slot < dirEntriesPerBlock; slot++ {
			base := slot * dirEntrySize
			payload := block[base+2 : base+dirEntrySize]
			e := parseDirEntryPayload(payload)
			e.location = ts
			e.slot = slot
			d.entries = append(d.entries, e)
		}
	}
	return nil
}

func parseDirEntryPayload(p []byte) *DirEntry {
	e := &DirEntry{}
	e.Type = p[0]
	e.FirstTrack = uint16(p[1])
	e.FirstSector = p[2]
	e.RawName = append([]byte(nil), p[3:19]...)
	e.Name = petscii.Trim(e.RawName)
	e.LSU = p[21]
	e.Year = p[23]
	e.Month = p[24]
	e.Day = p[25]
	e.Hour = p[26]
	e.Minute = p[27]
	e.Blocks = uint16(p[28]) | uint16(p[29])<<8
	return e
}

func (e *DirEntry) encodePayload() []byte {
	p := make([]byte, dirEntrySize-2)
	p[0] = e.Type
	p[1] = byte(e.FirstTrack)
	p[2] = e.FirstSector
	copy(p[3:19], petscii.Pad(e.Name, 16))
	// p[19], p[20] are the REL/reserved placeholders, left zero.
	p[21] = e.LSU
	// p[22] is reserved, left zero.
	p[23] = e.Year
	p[24] = e.Month
	p[25] = e.Day
	p[26] = e.Hour
	p[27] = e.Minute
	p[28] = byte(e.Blocks)
	p[29] = byte(e.Blocks >> 8)
	return p
}

// FindEntry returns the 1-based index of the first entry whose type is
// greater than lowType and whose filename matches name in either its raw
// PETSCII or ASCII-projected form. Returns -1 on miss.
func (d *Directory) FindEntry(name string, lowType byte) int {
	upper := strings.ToUpper(name)
	for i, e := range d.entries {
		if e.Type <= lowType {
			continue
		}
		rawEnd := len(e.RawName)
		for rawEnd > 0 && (e.RawName[rawEnd-1] == petscii.PadByte || e.RawName[rawEnd-1] == 0x00) {
			rawEnd--
		}
		if e.Name == upper || string(e.RawName[:rawEnd]) == upper {
			return i + 1
		}
	}
	return -1
}

// findFreeSlot returns the index of the first entry with type==0 and no
// blocks, or -1 if none exists.
func (d *Directory) findFreeSlot() int {
	for i, e := range d.entries {
		if e.Type == 0 && e.Blocks == 0 {
			return i
		}
	}
	return -1
}

// sectorForBlock computes the directory-track sector for the nth directory
// block, following dir_interleave from dir_sector_offset and wrapping at
// sectors_per_track(hdr_track).
func (d *Directory) sectorForBlock(n int) (uint8, error) {
	spt, err := d.g.SectorsPerTrack(d.g.HeaderTrack)
	if err != nil {
		return 0, err
	}
	base := int(d.g.DirSectorOffset())
	s := (base + n*int(d.g.DirInterleave)) % int(spt)
	return uint8(s), nil
}

// AllocEntry reserves a free directory slot for name, rejecting the
// request if an active entry with the same name already exists. If
// allocating the slot crosses into a new directory sector not yet reserved
// in BAM, that sector is allocated. Returns the 0-based entry index.
func (d *Directory) AllocEntry(img *Image, name string) (int, error) {
	if d.FindEntry(name, TypeDEL) > 0 {
		return 0, newErr(NameExists, "filename already in use: "+name)
	}

	idx := d.findFreeSlot()
	if idx < 0 {
		idx = len(d.entries)
		blockIdx := idx / dirEntriesPerBlock
		sector, err := d.sectorForBlock(blockIdx)
		if err != nil {
			return 0, wrapErr(GeometryErrorKind, "compute directory sector", err)
		}
		ts := geometry.TS{Track: d.g.HeaderTrack, Sector: sector}
		if img.bam.BlockAvailable(ts.Track, ts.Sector) {
			if err := img.bam.MarkBlocks([]geometry.TS{ts}, true); err != nil {
				return 0, wrapErr(NoFreeDirEntry, "allocate new directory sector", err)
			}
		}
		for slot := 0; slot < dirEntriesPerBlock; slot++ {
			d.entries = append(d.entries, &DirEntry{location: ts, slot: slot})
		}
	}

	e := d.entries[idx]
	e.Type = 0
	e.Blocks = 0
	e.Name = strings.ToUpper(name)
	e.RawName = petscii.Pad(name, 16)
	return idx, nil
}

// WriteEntry packs the 30-byte payload for entry idx into the directory
// block buffer and writes it back to the image.
func (d *Directory) WriteEntry(img *Image, idx int) error {
	if idx < 0 || idx >= len(d.entries) {
		return newErr(NotFound, "directory entry index out of range")
	}
	e := d.entries[idx]
	block, err := img.ReadBlock(e.location.Track, e.location.Sector)
	if err != nil {
		return err
	}
	base := e.slot * dirEntrySize
	copy(block[base+2:base+dirEntrySize], e.encodePayload())
	return img.WriteBlock(e.location.Track, e.location.Sector, block)
}

// Rename relocates name's in-memory filename field to newName. Caller must
// call Sync (or WriteEntry) to commit the change to the buffer.
func (d *Directory) Rename(oldName, newName string) error {
	idx := d.FindEntry(oldName, TypeDEL-1)
	if idx < 0 {
		return newErr(NotFound, "file not found: "+oldName)
	}
	e := d.entries[idx-1]
	e.Name = strings.ToUpper(newName)
	e.RawName = petscii.Pad(newName, 16)
	return nil
}

// Mkdir allocates one data block and a directory entry of type DIR
// pointing at it, then writes a single back-reference entry named ".."
// inside the new block pointing at the parent directory's start.
func (d *Directory) Mkdir(img *Image, name string) error {
	blocks, err := img.bam.Allocate(1)
	if err != nil {
		return err
	}
	idx, err := d.AllocEntry(img, name)
	if err != nil {
		img.bam.MarkBlocks(blocks, false)
		return err
	}
	e := d.entries[idx]
	e.Type = TypeDIR
	e.FirstTrack = blocks[0].Track
	e.FirstSector = blocks[0].Sector
	e.Blocks = 1
	if err := d.WriteEntry(img, idx); err != nil {
		return err
	}

	parent := geometry.TS{Track: d.g.HeaderTrack, Sector: d.g.DirSectorOffset()}
	block := make([]byte, geometry.BlockSize)
	back := &DirEntry{Type: TypeDIR, FirstTrack: parent.Track, FirstSector: parent.Sector, Name: "..", RawName: petscii.Pad("..", 16)}
	copy(block[2:dirEntrySize], back.encodePayload())
	return img.WriteBlock(blocks[0].Track, blocks[0].Sector, block)
}

// Sync clears the directory region of BAM, then writes every in-memory
// entry with blocks > 0 back into its slot.
func (d *Directory) Sync(img *Image) error {
	for blockIdx := 0; blockIdx*dirEntriesPerBlock < len(d.entries); blockIdx++ {
		sector, err := d.sectorForBlock(blockIdx)
		if err != nil {
			return err
		}
		img.bam.MarkBlocks([]geometry.TS{{Track: d.g.HeaderTrack, Sector: sector}}, false)
	}

	for idx, e := range d.entries {
		if e.Blocks == 0 {
			continue
		}
		blockIdx := idx / dirEntriesPerBlock
		sector, err := d.sectorForBlock(blockIdx)
		if err != nil {
			return err
		}
		ts := geometry.TS{Track: d.g.HeaderTrack, Sector: sector}
		img.bam.MarkBlocks([]geometry.TS{ts}, true)
		e.location = ts
		e.slot = idx % dirEntriesPerBlock
		if err := d.WriteEntry(img, idx); err != nil {
			return err
		}
	}
	return nil
}

// String renders a human-readable directory listing of the active entries.
// Each block count is the entry's own Blocks field; it is not checked
// against the BAM.
func (d *Directory) String() string {
	var b strings.Builder
	for _, e := range d.entries {
		if !e.Active() {
			continue
		}
		fmt.Fprintf(&b, "%-16s %5d %s\n", e.Name, e.Blocks, typeName(e.Type))
	}
	return b.String()
}

func typeName(t byte) string {
	switch t &^ 0x80 {
	case 0x00:
		return "DEL"
	case 0x01:
		return "SEQ"
	case 0x02:
		return "PRG"
	case 0x03:
		return "USR"
	case 0x04:
		return "REL"
	case 0x05:
		return "CBM"
	case 0x06:
		return "DIR"
	default:
		return "???"
	}
}
