package diskimage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cbmdisk/geometry"

	"github.com/pkg/errors"
)

// Image is a mutable, in-memory CBM disk image: its byte buffer plus the
// parsed header/BAM/directory caches that are authoritative until Save
// calls Sync. The geometry reference is shared read-only with every
// operation that acts on the image.
type Image struct {
	diagnostics

	filename string
	geometry geometry.Geometry
	buf      []byte
	isX64    bool
	isCustom bool

	header *Header
	bam    *BAM
	dir    *Directory
}

// Program is the result of reading a stored file out of an image.
type Program struct {
	Bytes    []byte
	Type     byte
	Filename string
	Year, Month, Day, Hour, Minute byte
	Blocks   uint16
}

// Create builds a blank image for the given geometry, with BAM initialized
// and the header set from label/id.
func Create(filename string, g geometry.Geometry, label, id string) (*Image, error) {
	img := &Image{
		filename: filename,
		geometry: g,
		buf:      make([]byte, g.SectorCount()*geometry.BlockSize),
	}
	img.header = newHeader()
	img.bam = newBAM(g)
	img.dir = newDirectory(g)

	img.bam.Initialize()
	reserveHeaderTrack(img.bam, g)

	img.header.SetHeaderLabel(label, id, &g.DOSType)
	if err := img.syncAll(); err != nil {
		return nil, err
	}
	return img, nil
}

// reserveHeaderTrack additionally reserves the rest of the header/directory
// track beyond what BAM.Initialize marks on its own, matching real CBM DOS
// format behavior (a freshly formatted 1541 reports exactly 664 blocks
// free); see DESIGN.md's Open Question entry on this.
func reserveHeaderTrack(bam *BAM, g geometry.Geometry) {
	spt, err := g.SectorsPerTrack(g.HeaderTrack)
	if err != nil {
		return
	}
	for s := uint8(0); s < spt; s++ {
		bam.reserve(geometry.TS{Track: g.HeaderTrack, Sector: s})
	}
}

// CreateCustom builds a blank image using a custom geometry, to be saved as
// an X64 container carrying the custom geometry parameter block.
func CreateCustom(filename string, params geometry.CustomParams, label, id string) (*Image, error) {
	g := geometry.FromCustomParams(params)
	img, err := Create(filename, g, label, id)
	if err != nil {
		return nil, err
	}
	img.isX64 = true
	img.isCustom = true
	return img, nil
}

// Load reads filename, unwraps an X64 container if present, selects the
// geometry and parses HDR/BAM/DIR.
func Load(filename string) (*Image, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, wrapErr(IoError, "read image file", err)
	}

	img := &Image{filename: filename}
	if IsX64(raw) {
		g, body, err := UnwrapX64(raw)
		if err != nil {
			return nil, err
		}
		img.geometry = g
		img.buf = append([]byte(nil), body...)
		img.isX64 = true
		img.isCustom = g.Format == "X64"
	} else {
		g, ok := geometry.SelectByExtension(filename)
		if !ok {
			return nil, newErr(InvalidImage, "unrecognized geometry for "+filename)
		}
		img.geometry = g
		img.buf = append([]byte(nil), raw...)
	}

	if len(img.buf) < img.geometry.SectorCount()*geometry.BlockSize {
		return nil, newErr(InvalidImage, "image buffer shorter than its geometry requires")
	}

	img.header = newHeader()
	img.bam = newBAM(img.geometry)
	img.dir = newDirectory(img.geometry)

	if err := img.header.Parse(img); err != nil {
		return nil, err
	}
	if err := img.bam.Parse(img); err != nil {
		return nil, err
	}
	if err := img.dir.Parse(img); err != nil {
		return nil, err
	}

	if img.geometry.BAMLocationPolicy == geometry.SpillsOver && img.geometry.BAMInterleave == 0 {
		img.warn("bam-spillover-load", "1571 BAM may not save correctly")
	}

	return img, nil
}

// syncAll writes HDR, then DIR, then BAM back into the buffer. DIR sync
// may allocate new directory blocks in BAM, so BAM must serialize last.
func (img *Image) syncAll() error {
	if err := img.header.Sync(img); err != nil {
		return err
	}
	if err := img.dir.Sync(img); err != nil {
		return err
	}
	if err := img.bam.Sync(img); err != nil {
		return err
	}
	return nil
}

// Save syncs HDR/DIR/BAM and writes the image to filename (or its original
// filename when empty), re-wrapping in X64 for a custom geometry.
func (img *Image) Save(filename string) error {
	if filename == "" {
		filename = img.filename
	}
	if err := img.syncAll(); err != nil {
		return err
	}

	out := img.buf
	if img.isCustom {
		out = WrapX64(img.geometry, img.buf, true)
	}
	if err := os.WriteFile(filename, out, 0644); err != nil {
		return wrapErr(IoError, "write image file", err)
	}
	img.filename = filename
	return nil
}

// Dir returns the parsed directory listing.
func (img *Image) Dir() []*DirEntry {
	return img.dir.entries
}

// BlocksFree returns the BAM's current free-sector count.
func (img *Image) BlocksFree() int {
	return img.bam.BlocksFree()
}

// BlocksTotal returns the geometry's total addressable sector count.
func (img *Image) BlocksTotal() int {
	return img.geometry.SectorCount()
}

// Header returns the parsed header.
func (img *Image) Header() *Header {
	return img.header
}

// RevalidateBAM walks every active directory entry's file chain, rebuilds
// the used-block set, and reclaims any block no active entry claims,
// clearing tombstoned files' lingering allocations, per spec.md §4.10.
func (img *Image) RevalidateBAM() error {
	used := make(map[geometry.TS]bool)
	for _, e := range img.dir.entries {
		if !e.Active() {
			continue
		}
		chain, err := img.BuildChain(e.FirstTrack, e.FirstSector, 0)
		if err != nil {
			img.warn("revalidate-chain-error", err.Error())
			continue
		}
		for _, ts := range chain {
			used[ts] = true
		}
	}

	reserved := make(map[geometry.TS]bool)
	reserved[geometry.TS{Track: img.geometry.HeaderTrack, Sector: 0}] = true
	for _, pos := range bamSectorPositions(img.geometry) {
		reserved[pos] = true
	}

	for t := uint16(1); t <= img.geometry.Tracks; t++ {
		spt, err := img.geometry.SectorsPerTrack(t)
		if err != nil {
			continue
		}
		for s := uint8(0); s < spt; s++ {
			ts := geometry.TS{Track: t, Sector: s}
			if t == img.geometry.HeaderTrack || reserved[ts] {
				continue
			}
			if !used[ts] && !img.bam.BlockAvailable(t, s) {
				img.bam.MarkBlocks([]geometry.TS{ts}, false)
			}
		}
	}
	return nil
}

// Mkdir allocates a subdirectory entry named name, with a single data block
// carrying a ".." back-reference to the parent directory's start.
func (img *Image) Mkdir(name string) error {
	return img.dir.Mkdir(img, name)
}

// RenameFile changes a stored file's directory name in memory; callers must
// Save (which syncs) to commit the change to the buffer.
func (img *Image) RenameFile(oldName, newName string) error {
	return img.dir.Rename(oldName, newName)
}

// FindFile returns the 1-based directory index of the first active entry
// named name, or -1 if none matches.
func (img *Image) FindFile(name string) int {
	return img.dir.FindEntry(name, TypeDEL-1)
}

// ReadProgramByFilename extracts a stored file by name.
func (img *Image) ReadProgramByFilename(name string) (*Program, error) {
	idx := img.dir.FindEntry(name, TypeDEL-1)
	if idx < 0 {
		return nil, newErr(NotFound, "file not found: "+name)
	}
	return img.ReadProgramByIndex(idx)
}

// ReadProgramByIndex extracts a stored file by its 1-based directory index.
func (img *Image) ReadProgramByIndex(index int) (*Program, error) {
	if index < 1 || index > len(img.dir.entries) {
		return nil, newErr(NotFound, "directory index out of range")
	}
	e := img.dir.entries[index-1]
	if !e.Active() {
		return nil, newErr(NotFound, "directory slot is not active")
	}
	payload, err := img.ReadFileChain(e.FirstTrack, e.FirstSector, 0)
	if err != nil {
		return nil, err
	}
	return &Program{
		Bytes: payload, Type: e.Type, Filename: e.Name,
		Year: e.Year, Month: e.Month, Day: e.Day, Hour: e.Hour, Minute: e.Minute,
		Blocks: e.Blocks,
	}, nil
}

// WriteProgram allocates a directory slot and BAM blocks for data, writing
// the file chain and the directory entry. On failure BAM and DIR are left
// unchanged.
func (img *Image) WriteProgram(data []byte, name string, fileType byte, year, month, day, hour, minute byte) error {
	chunks := CreateFileChain(data)
	if len(chunks) == 0 {
		return newErr(NoFreeBlocks, "a file occupying 0 blocks cannot be allocated")
	}

	blocks, err := img.bam.Allocate(len(chunks))
	if err != nil {
		return err
	}

	idx, err := img.dir.AllocEntry(img, name)
	if err != nil {
		img.bam.MarkBlocks(blocks, false)
		return err
	}

	for i, chunk := range chunks {
		block := make([]byte, geometry.BlockSize)
		copy(block[2:], chunk)
		if err := img.WriteBlock(blocks[i].Track, blocks[i].Sector, block); err != nil {
			img.bam.MarkBlocks(blocks, false)
			return err
		}
		if i < len(chunks)-1 {
			if err := img.WriteTSLink(blocks[i].Track, blocks[i].Sector, blocks[i+1]); err != nil {
				img.bam.MarkBlocks(blocks, false)
				return err
			}
		} else {
			lastLen := uint8(len(chunk) + 1)
			if err := img.WriteTSLink(blocks[i].Track, blocks[i].Sector, geometry.TS{Track: 0, Sector: lastLen}); err != nil {
				img.bam.MarkBlocks(blocks, false)
				return err
			}
		}
	}

	e := img.dir.entries[idx]
	e.Type = fileType
	e.FirstTrack = blocks[0].Track
	e.FirstSector = blocks[0].Sector
	e.Blocks = uint16(len(blocks))
	e.LSU = uint8(len(chunks[len(chunks)-1]) + 1)
	e.Year, e.Month, e.Day, e.Hour, e.Minute = year, month, day, hour, minute

	return img.dir.WriteEntry(img, idx)
}

// ReadStoreProgramByIndex extracts the file at index and writes it to an
// external file named "<name>.YYYY-MM-DD-HH-MM.<TYPE>" inside dir.
func (img *Image) ReadStoreProgramByIndex(index int, dir string) (string, error) {
	p, err := img.ReadProgramByIndex(index)
	if err != nil {
		return "", err
	}
	safeName := strings.NewReplacer("/", "_", " ", "_").Replace(p.Filename)
	year := int(p.Year)
	if year < 1000 {
		year += 1900
	}
	out := filepath.Join(dir, fmtExtractedName(safeName, year, int(p.Month), int(p.Day), int(p.Hour), int(p.Minute), typeName(p.Type)))
	if err := os.WriteFile(out, p.Bytes, 0644); err != nil {
		return "", wrapErr(IoError, "write extracted file", err)
	}
	return out, nil
}

func fmtExtractedName(name string, year, month, day, hour, minute int, typ string) string {
	return fmt.Sprintf("%s.%04d-%02d-%02d-%02d-%02d.%s", name, year, month, day, hour, minute, typ)
}

// parseExtractedName parses "<name>.YYYY-MM-DD-HH-MM.<TYPE>", falling
// back to "<name>.<TYPE>" (using the current time) when no timestamp is
// present.
func parseExtractedName(path string) (name string, year, month, day, hour, minute int, typ string, err error) {
	base := filepath.Base(path)
	parts := strings.Split(base, ".")
	if len(parts) == 3 {
		ts := strings.Split(parts[1], "-")
		if len(ts) == 5 {
			var vals [5]int
			for i, s := range ts {
				v, err := strconv.Atoi(s)
				if err != nil {
					return "", 0, 0, 0, 0, 0, "", errors.Wrap(err, "malformed timestamp")
				}
				vals[i] = v
			}
			return parts[0], vals[0], vals[1], vals[2], vals[3], vals[4], parts[2], nil
		}
	}
	if len(parts) == 2 {
		now := fallbackTime()
		return parts[0], now.Year(), int(now.Month()), now.Day(), now.Hour(), now.Minute(), parts[1], nil
	}
	return "", 0, 0, 0, 0, 0, "", newErr(InvalidImage, "unrecognized extracted filename: "+path)
}

// fallbackTime is isolated behind a var so callers needing determinism
// (tests) can override it; production code calls time.Now().
var fallbackTime = time.Now

func typeFromName(t string) byte {
	switch strings.ToUpper(t) {
	case "DEL":
		return TypeDEL
	case "SEQ":
		return TypeSEQ
	case "PRG":
		return TypePRG
	case "USR":
		return TypeUSR
	case "REL":
		return TypeREL
	case "CBM":
		return TypeCBM
	case "DIR":
		return TypeDIR
	default:
		return TypePRG
	}
}

// WriteProgramFromFile is the inverse of ReadStoreProgramByIndex: it parses
// the timestamp from path's name using the same convention and injects the
// file's bytes under the recovered name/type/date.
func (img *Image) WriteProgramFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return wrapErr(IoError, "read source file", err)
	}
	name, year, month, day, hour, minute, typ, err := parseExtractedName(path)
	if err != nil {
		return err
	}
	yearByte := byte(year)
	if year >= 1900 {
		yearByte = byte(year - 1900)
	}
	return img.WriteProgram(data, name, typeFromName(typ), yearByte, byte(month), byte(day), byte(hour), byte(minute))
}
