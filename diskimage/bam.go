package diskimage

import (
	"cbmdisk/geometry"

	"github.com/pkg/errors"
)

// bamEntry is one track's row in the Block Availability Map.
type bamEntry struct {
	Track uint16
	FSC   uint8
	Free  []bool // Free[i] == true means sector i is available; LSB-first on disk.
}

// BAM is the parsed, in-memory Block Availability Map. It is the
// authoritative free-space state for an Image between Parse/Initialize and
// the next Sync.
type BAM struct {
	g       geometry.Geometry
	entries map[uint16]*bamEntry
}

func newBAM(g geometry.Geometry) *BAM {
	return &BAM{g: g, entries: make(map[uint16]*bamEntry)}
}

// bamSectorPositions returns the on-disk (track, sector) of every BAM
// sector, in order, per the BAM-location policy.
func bamSectorPositions(g geometry.Geometry) []geometry.TS {
	first := g.BAMPosition()
	n := int(g.BAMSectorCount)
	if n <= 0 {
		n = 1
	}
	positions := make([]geometry.TS, 0, n)

	if g.BAMLocationPolicy == geometry.SpillsOver {
		positions = append(positions, first)
		if n > 1 {
			positions = append(positions, geometry.TS{
				Track:  first.Track + g.Tracks/2,
				Sector: 0,
			})
		}
		for k := 2; k < n; k++ {
			positions = append(positions, geometry.TS{
				Track:  first.Track + g.Tracks/2,
				Sector: uint8(k - 1),
			})
		}
		return positions
	}

	for k := 0; k < n; k++ {
		positions = append(positions, geometry.TS{
			Track:  first.Track,
			Sector: first.Sector + uint8(k)*maxu8(g.BAMInterleave, 1),
		})
	}
	return positions
}

func maxu8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

// Parse reads the BAM chain starting at bam_position() for exactly
// bam_sectors blocks. Per spec, the per-sector positions are computed
// arithmetically (spec.md §4.5's Initialize formula) rather than by
// following the sectors' own T/S links, since those links may legitimately
// be zero even mid-chain.
func (b *BAM) Parse(img *Image) error {
	positions := bamSectorPositions(b.g)
	spb := int(b.g.TracksPerBAMSector)
	if spb <= 0 {
		spb = int(b.g.Tracks)
	}
	bamSectorBytes := b.g.BAMSectorBytes()
	recordLen := 1 + bamSectorBytes

	for blockIdx, pos := range positions {
		block, err := img.ReadBlock(pos.Track, pos.Sector)
		if err != nil {
			return wrapErr(InvalidImage, "read bam sector", err)
		}
		off := int(b.g.BAMLabelOffset)
		base := uint16(blockIdx*spb) + 1
		for i := 0; i < spb; i++ {
			track := base + uint16(i)
			if track > b.g.Tracks {
				break
			}
			if off+recordLen > len(block) {
				break
			}
			spt, err := b.g.SectorsPerTrack(track)
			if err != nil {
				off += recordLen
				continue
			}
			fsc := block[off]
			bits := block[off+1 : off+recordLen]
			free := make([]bool, spt)
			for s := 0; s < int(spt); s++ {
				byteIdx := s / 8
				bitIdx := uint(s % 8)
				if byteIdx < len(bits) {
					free[s] = bits[byteIdx]&(1<<bitIdx) != 0
				}
			}
			b.entries[track] = &bamEntry{Track: track, FSC: fsc, Free: free}
			off += recordLen
		}
	}
	return nil
}

// Sync serializes the in-memory BAM back into the image buffer. When
// bam_interleave > 0, the T/S link bytes chaining one BAM sector to the
// next are also written, per spec.md §4.5.
func (b *BAM) Sync(img *Image) error {
	positions := bamSectorPositions(b.g)
	spb := int(b.g.TracksPerBAMSector)
	if spb <= 0 {
		spb = int(b.g.Tracks)
	}
	bamSectorBytes := b.g.BAMSectorBytes()
	recordLen := 1 + bamSectorBytes

	for blockIdx, pos := range positions {
		// Start from the sector's current bytes: an on-header BAM shares its
		// sector with the disk label that Header.Sync has already written.
		block, err := img.ReadBlock(pos.Track, pos.Sector)
		if err != nil {
			return err
		}
		off := int(b.g.BAMLabelOffset)
		base := uint16(blockIdx*spb) + 1
		for i := 0; i < spb; i++ {
			track := base + uint16(i)
			if track > b.g.Tracks || off+recordLen > len(block) {
				break
			}
			for j := off; j < off+recordLen; j++ {
				block[j] = 0
			}
			e := b.entries[track]
			if e != nil {
				block[off] = e.FSC
				for s, free := range e.Free {
					if free {
						block[off+1+s/8] |= 1 << uint(s%8)
					}
				}
			}
			off += recordLen
		}
		if err := img.WriteBlock(pos.Track, pos.Sector, block); err != nil {
			return err
		}

		if b.g.BAMInterleave > 0 {
			if blockIdx < len(positions)-1 {
				if err := img.WriteTSLink(pos.Track, pos.Sector, positions[blockIdx+1]); err != nil {
					return err
				}
			} else {
				if err := img.WriteTSLink(pos.Track, pos.Sector, geometry.TS{}); err != nil {
					return err
				}
			}
		} else if b.g.BAMLocationPolicy == geometry.SpillsOver {
			img.warn("bam-sync-spillover", "1571 BAM may not save correctly: bam_interleave is 0 so no chain link is written across the spill-over sector")
		}
	}
	return nil
}

// Initialize marks every addressable sector free except the header sector
// and every BAM sector (for a BAM on the header sector, that is the same
// sector). Higher-level Create/CreateCustom operations additionally
// reserve the rest of the header track to match real CBM DOS format
// behavior; see DESIGN.md's Open Question entry.
func (b *BAM) Initialize() {
	b.entries = make(map[uint16]*bamEntry)
	for t := uint16(1); t <= b.g.Tracks; t++ {
		spt, err := b.g.SectorsPerTrack(t)
		if err != nil {
			continue
		}
		free := make([]bool, spt)
		for i := range free {
			free[i] = true
		}
		b.entries[t] = &bamEntry{Track: t, FSC: spt, Free: free}
	}

	b.reserve(geometry.TS{Track: b.g.HeaderTrack, Sector: 0})
	for _, pos := range bamSectorPositions(b.g) {
		b.reserve(pos)
	}
}

func (b *BAM) reserve(ts geometry.TS) {
	e := b.entries[ts.Track]
	if e == nil || int(ts.Sector) >= len(e.Free) {
		return
	}
	if e.Free[ts.Sector] {
		e.Free[ts.Sector] = false
		e.FSC--
	}
}

// BlockAvailable reports whether (t, s) is currently free.
func (b *BAM) BlockAvailable(t uint16, s uint8) bool {
	e := b.entries[t]
	if e == nil || int(s) >= len(e.Free) {
		return false
	}
	return e.Free[s]
}

// BlocksTotal is the addressable sector count across every track BAM
// tracks (equivalent to the geometry's SectorCount for a fully-parsed BAM).
func (b *BAM) BlocksTotal() int {
	total := 0
	for _, e := range b.entries {
		total += len(e.Free)
	}
	return total
}

// BlocksFree is the number of sectors currently marked free.
func (b *BAM) BlocksFree() int {
	total := 0
	for _, e := range b.entries {
		for _, f := range e.Free {
			if f {
				total++
			}
		}
	}
	return total
}

// orderedTracks returns the write-preferred track visitation order used by
// Allocate: centered near the middle of the disk, working outward, the
// real CBM DOS allocation order for minimizing head travel.
func orderedTracks(n uint16) []uint16 {
	mid := n/2 + 1
	q1 := mid / 2
	q3 := 3 * q1

	var order []uint16
	appendRange := func(lo, hi uint16) {
		for t := lo; t <= hi && t >= 1 && t <= n; t++ {
			order = append(order, t)
		}
	}
	if mid >= 1 {
		appendRange(q1, mid-1)
	}
	if q3 >= 1 {
		appendRange(mid, q3-1)
	}
	if q1 >= 1 {
		appendRange(1, q1-1)
	}
	appendRange(q3, n)
	return order
}

// Allocate reserves the first n free blocks in write-preferred order,
// excluding the header track, and returns their coordinates. It does not
// mutate the BAM on failure.
func (b *BAM) Allocate(n int) ([]geometry.TS, error) {
	if n <= 0 {
		return nil, nil
	}
	var candidates []geometry.TS
	for _, t := range orderedTracks(b.g.Tracks) {
		if t == b.g.HeaderTrack {
			continue
		}
		e := b.entries[t]
		if e == nil {
			continue
		}
		for s, free := range e.Free {
			if free {
				candidates = append(candidates, geometry.TS{Track: t, Sector: uint8(s)})
				if len(candidates) >= n {
					break
				}
			}
		}
		if len(candidates) >= n {
			break
		}
	}
	if len(candidates) < n {
		return nil, newErr(NoFreeBlocks, "not enough free blocks to satisfy allocation")
	}
	if err := b.MarkBlocks(candidates, true); err != nil {
		return nil, err
	}
	return candidates, nil
}

// MarkBlocks updates the bitmap and FSC for every block in list to the
// requested state. If mark is true (used) and any block in list is already
// used, the entire operation is rejected without mutating anything.
func (b *BAM) MarkBlocks(list []geometry.TS, used bool) error {
	if used {
		for _, ts := range list {
			e := b.entries[ts.Track]
			if e == nil || int(ts.Sector) >= len(e.Free) {
				return wrapErr(GeometryErrorKind, "mark blocks", errors.Errorf("bad t/s %v", ts))
			}
			if !e.Free[ts.Sector] {
				return newErr(DoubleAlloc, "block already allocated")
			}
		}
	}
	for _, ts := range list {
		e := b.entries[ts.Track]
		if e == nil || int(ts.Sector) >= len(e.Free) {
			continue
		}
		if used && e.Free[ts.Sector] {
			e.Free[ts.Sector] = false
			e.FSC--
		} else if !used && !e.Free[ts.Sector] {
			e.Free[ts.Sector] = true
			e.FSC++
		}
	}
	return nil
}
