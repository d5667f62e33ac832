// Package geometry describes the parametric disk layout of a CBM drive
// family: track zones, BAM placement policy, directory placement,
// interleave constants and the DOS-type string. One Geometry value
// abstracts a dozen drive variants (1541/1571/1581, 2040/8050/8250,
// 9030/60/90) behind a single, read-only interface.
//
// Derived almost exclusively from "Inside Commodore DOS" and published CBM
// DOS disk-format references.
package geometry

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	// BlockSize is the fixed payload size of every CBM disk sector.
	BlockSize = 256

	// maxZones is the largest number of track zones any CBM drive family needs.
	maxZones = 4
)

// BAMLocation selects where the Block Availability Map sector(s) sit
// relative to the header/directory track.
type BAMLocation byte

const (
	// OnHeader co-locates the BAM on the header sector itself (1541/4040).
	OnHeader BAMLocation = 0x00
	// FollowsHeader places the BAM in the sector(s) immediately after the
	// header sector, on the same track (1581, 8050/8250).
	FollowsHeader BAMLocation = 0x01
	// TrackBeforeHeader places the BAM at sector 0 of the track preceding
	// the header track (2040/3040, the earliest CBM DOS).
	TrackBeforeHeader BAMLocation = 0x02
	// SpillsOver extends the BAM into the reverse side (1571).
	SpillsOver BAMLocation = 0x47
	// StealsFromZones is the 9000-series layout: a 10-bit track space whose
	// zone high tracks carry bits 8-9 in the top two bits of the X64 custom
	// block's sectors-per-track byte, and whose T/S links are repacked on
	// every read and write (see the diskimage package's link adjustment).
	StealsFromZones BAMLocation = 0x5A
)

// Zone is a contiguous run of tracks sharing a sectors-per-track count.
// A Zone with HighTrack == 0 is absent (geometries need fewer than the
// maximum four zones). Track numbers are carried as uint16 because the
// 9000-series zone-stealing layout addresses a 10-bit track space.
type Zone struct {
	HighTrack       uint16
	SectorsPerTrack uint8
}

// TS is a (track, sector) coordinate. Tracks are 1-indexed, sectors
// 0-indexed. Track is uint16 to hold the 9000-series' 10-bit track number;
// Sector stays uint8, which comfortably holds its 6-bit range too.
type TS struct {
	Track  uint16
	Sector uint8
}

// Geometry is an immutable description of one CBM disk layout. Once chosen
// for an Image it never changes; callers share it read-only.
//
// Zones always describe a single side's track boundaries (at most four,
// per spec.md §3): for a double-sided geometry the reverse side repeats
// the same zone pattern, so Tracks (the true, whole-disk track count) is
// tracked separately rather than read off the zone table.
type Geometry struct {
	DoubleSided bool
	Tracks      uint16 // whole-disk track count, both sides when DoubleSided
	Format      string // "D64", "D71", ...
	DOSType     [2]byte

	HeaderTrack       uint16
	HeaderLabelOffset uint8

	DirInterleave  uint8
	FileInterleave uint8

	BAMLabelOffset     uint8
	Zones              [maxZones]Zone
	BAMInterleave      uint8
	BAMLocationPolicy  BAMLocation
	BAMSectorCount     uint8
	TracksPerBAMSector uint16

	BootTrack uint16
}

// ErrBadTrackSector is returned when a (track, sector) pair falls outside
// the addressable range of a Geometry.
var ErrBadTrackSector = errors.New("geometry: track/sector out of range")

// tracksPerSide returns the track count of a single side for a
// double-sided geometry, or the whole disk's track count otherwise.
func (g Geometry) tracksPerSide() uint16 {
	if g.DoubleSided {
		return g.Tracks / 2
	}
	return g.Tracks
}

// lookupZone finds the zone governing track t, folding t through the
// per-side track count first when the geometry is double-sided (1571 and
// 8250 repeat the same zone layout on the reverse side, rather than
// describing eight zones in a four-zone table.
func (g Geometry) lookupZone(t uint16) (Zone, bool) {
	if g.DoubleSided {
		side := g.tracksPerSide()
		if side == 0 {
			return Zone{}, false
		}
		t = ((t - 1) % side) + 1
	}
	for _, z := range g.Zones {
		if z.HighTrack == 0 {
			continue
		}
		if t <= z.HighTrack {
			return z, true
		}
	}
	return Zone{}, false
}

// SectorsPerTrack returns the sector count of track t. A Zone's
// SectorsPerTrack of 0 means 256 in a non-zone-stealing layout (kept as 0
// here, not wrapped to 256, since no current drive variant needs a track
// that wide, callers addressing such a zone must treat 0 as 256).
func (g Geometry) SectorsPerTrack(t uint16) (uint8, error) {
	return g.resolveSPT(t)
}

// MaxSectorsInTrack returns the largest SectorsPerTrack across all
// populated zones.
func (g Geometry) MaxSectorsInTrack() uint8 {
	var max uint8
	for _, z := range g.Zones {
		if z.HighTrack == 0 {
			continue
		}
		if z.SectorsPerTrack > max {
			max = z.SectorsPerTrack
		}
	}
	return max
}

// TrackCount is the whole-disk track count.
func (g Geometry) TrackCount() uint16 {
	return g.Tracks
}

// SectorCount is the total addressable sector count of the disk: the sum
// of SectorsPerTrack over every track, both sides when double-sided.
func (g Geometry) SectorCount() int {
	total := 0
	for t := uint16(1); t <= g.Tracks; t++ {
		spt, err := g.resolveSPT(t)
		if err != nil {
			continue
		}
		total += int(spt)
	}
	return total
}

// BAMSectorBytes is the number of bitmap bytes (excluding the leading FSC
// byte) needed to describe one track's sector map.
func (g Geometry) BAMSectorBytes() int {
	n := int(g.MaxSectorsInTrack())
	return (n + 7) / 8
}

// BAMSize is the total byte footprint of one track's worth of BAM entries
// across the whole disk: TrackCount * (BAMSectorBytes + 1).
func (g Geometry) BAMSize() int {
	return int(g.TrackCount()) * (g.BAMSectorBytes() + 1)
}

// BAMPosition returns the (track, sector) of the first BAM sector, derived
// from the BAM-location policy.
func (g Geometry) BAMPosition() TS {
	switch g.BAMLocationPolicy {
	case OnHeader:
		return TS{g.HeaderTrack, 0}
	case FollowsHeader:
		return TS{g.HeaderTrack, 1}
	case TrackBeforeHeader:
		return TS{g.HeaderTrack - 1, 0}
	case SpillsOver:
		return TS{g.HeaderTrack, 0}
	case StealsFromZones:
		return TS{g.HeaderTrack - 1, 0}
	default:
		return TS{g.HeaderTrack, 0}
	}
}

// DirSectorOffset returns the first directory sector offset on the header
// track: 1 plus the BAM sector count when the BAM follows the header,
// otherwise 1.
func (g Geometry) DirSectorOffset() uint8 {
	if g.BAMLocationPolicy == FollowsHeader {
		return 1 + g.BAMSectorCount
	}
	return 1
}

// GetSectorOffset returns the linear sector index of (t, s): the cumulative
// sum of sectors-per-track over every track strictly before t, plus s.
func (g Geometry) GetSectorOffset(t uint16, s uint8) (int, error) {
	spt, err := g.resolveSPT(t)
	if err != nil {
		return 0, err
	}
	if s >= spt {
		return 0, errors.Wrapf(ErrBadTrackSector, "sector %d on track %d (max %d)", s, t, spt)
	}

	offset := 0
	for track := uint16(1); track < t; track++ {
		tspt, err := g.resolveSPT(track)
		if err != nil {
			return 0, err
		}
		offset += int(tspt)
	}
	offset += int(s)
	return offset, nil
}

func resolveZoneSPT(z Zone, g Geometry) uint8 {
	if z.SectorsPerTrack == 0 && g.BAMLocationPolicy != StealsFromZones {
		return 0
	}
	return z.SectorsPerTrack
}

func (g Geometry) resolveSPT(t uint16) (uint8, error) {
	z, ok := g.lookupZone(t)
	if !ok {
		return 0, errors.Wrapf(ErrBadTrackSector, "track %d", t)
	}
	return resolveZoneSPT(z, g), nil
}

// SelectByExtension returns the canonical Geometry for a filename
// extension, following the policy in spec.md §4.1.
func SelectByExtension(filename string) (Geometry, bool) {
	ext := strings.ToUpper(filename)
	if i := strings.LastIndexByte(ext, '.'); i >= 0 {
		ext = ext[i+1:]
	}
	g, ok := byExtension[ext]
	return g, ok
}

var byExtension = map[string]Geometry{
	"D64": D1541,
	"D71": D1571,
	"D81": D1581,
	"D67": D2040,
	"D40": D2040,
	"D80": D8050,
	"D82": D8250,
	"D93": D9030,
	"D96": D9060,
	"D99": D9090,
}
