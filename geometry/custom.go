package geometry

// CustomParams is the decoded form of the 22-byte X64 custom geometry
// parameter block (spec.md §6). Zones hold plain values: a zone-stealing
// (StealsFromZones) high track above 255 is kept whole here, and the
// diskimage package's X64 block encoder/decoder does the repacking of its
// top bits into the sectors-per-track byte.
type CustomParams struct {
	DOSType            byte // hex pair packed into one byte, e.g. 0x2A for "2A"
	HdrDirTrack        uint8
	HdrLabelOffset     uint8
	DirInterleave      uint8
	FileInterleave     uint8
	BAMLabelOffset     uint8
	Zones              [maxZones]Zone
	BAMInterleave      uint8
	BAMLocationFlag    BAMLocation
	BAMSectorCount     uint8
	TracksPerBAMSector uint8
	BootTrack          uint8
}

// hexNibble maps a 4-bit value to the ASCII character CBM DOS type strings
// use for that nibble ('0'-'9', 'A'-'F').
func hexNibble(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'A' + (n - 10)
}

func nibbleValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// dosTypeToByte packs a two-character DOS-type string into the single byte
// the X64 custom block stores it as.
func dosTypeToByte(dt [2]byte) byte {
	return nibbleValue(dt[0])<<4 | nibbleValue(dt[1])
}

// byteToDOSType unpacks the X64 custom block's single DOS-type byte back
// into its two-character ASCII form.
func byteToDOSType(b byte) [2]byte {
	return [2]byte{hexNibble(b >> 4), hexNibble(b & 0x0F)}
}

// FromCustomParams builds a Geometry from a decoded X64 custom parameter
// block: the "custom" variant carries the same parameters read out of an
// X64 header, per spec.md §4.1. The on-disk fields are single bytes; widened
// here to the in-memory Geometry's uint16 track fields (needed elsewhere to
// hold the 9000-series' 10-bit track numbers, but every custom-block value
// fits in a byte by construction).
func FromCustomParams(p CustomParams) Geometry {
	g := Geometry{
		Format:             "X64",
		Tracks:             highestZoneTrack(p.Zones),
		DOSType:            byteToDOSType(p.DOSType),
		HeaderTrack:        uint16(p.HdrDirTrack),
		HeaderLabelOffset:  p.HdrLabelOffset,
		DirInterleave:      p.DirInterleave,
		FileInterleave:     p.FileInterleave,
		BAMLabelOffset:     p.BAMLabelOffset,
		Zones:              p.Zones,
		BAMInterleave:      p.BAMInterleave,
		BAMLocationPolicy:  p.BAMLocationFlag,
		BAMSectorCount:     p.BAMSectorCount,
		TracksPerBAMSector: uint16(p.TracksPerBAMSector),
		BootTrack:          uint16(p.BootTrack),
	}
	if p.BAMLocationFlag == StealsFromZones {
		g.DoubleSided = false
	}
	return g
}

// highestZoneTrack returns the last populated zone's HighTrack, used as the
// whole-disk track count for a custom geometry that has no separate
// on-disk "total tracks" field of its own.
func highestZoneTrack(zones [maxZones]Zone) uint16 {
	var max uint16
	for _, z := range zones {
		if z.HighTrack > max {
			max = z.HighTrack
		}
	}
	return max
}

// ToCustomParams is the inverse of FromCustomParams, used both to
// round-trip a Geometry built from X64 params and to encode a fresh custom
// geometry chosen by CreateCustom back into an X64 header on save. The
// header track, tracks-per-BAM-sector and boot track fields are narrowed
// back to the single on-disk byte; Zones keep their uint16 high tracks.
func (g Geometry) ToCustomParams() CustomParams {
	return CustomParams{
		DOSType:            dosTypeToByte(g.DOSType),
		HdrDirTrack:        uint8(g.HeaderTrack),
		HdrLabelOffset:     g.HeaderLabelOffset,
		DirInterleave:      g.DirInterleave,
		FileInterleave:     g.FileInterleave,
		BAMLabelOffset:     g.BAMLabelOffset,
		Zones:              g.Zones,
		BAMInterleave:      g.BAMInterleave,
		BAMLocationFlag:    g.BAMLocationPolicy,
		BAMSectorCount:     g.BAMSectorCount,
		TracksPerBAMSector: uint8(g.TracksPerBAMSector),
		BootTrack:          uint8(g.BootTrack),
	}
}
