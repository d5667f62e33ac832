package geometry

// Concrete parameter tables for the canonical CBM drive families named in
// spec.md §1. Values are the standard, widely published CBM DOS disk-format
// figures (track zones, interleave, BAM placement): domain knowledge, not
// anything derivable from the retrieval pack, since no pack repo carries
// CBM disk-geometry constants.

// D1541 is the 1541/4040-compatible 35-track, 683-block layout.
var D1541 = Geometry{
	Tracks:            35,
	Format:            "D64",
	DOSType:           [2]byte{'2', 'A'},
	HeaderTrack:       18,
	HeaderLabelOffset: 0x90,
	DirInterleave:     3,
	FileInterleave:    10,
	BAMLabelOffset:    4,
	Zones: [maxZones]Zone{
		{17, 21},
		{24, 19},
		{30, 18},
		{35, 17},
	},
	BAMInterleave:      0,
	BAMLocationPolicy:  OnHeader,
	BAMSectorCount:     1,
	TracksPerBAMSector: 35,
}

// D1571 is the double-sided 1571 layout: the 1541's single-side zones
// repeated on the reverse side, with the BAM spilling over into side two.
var D1571 = Geometry{
	DoubleSided:       true,
	Tracks:            70,
	Format:            "D71",
	DOSType:           [2]byte{'3', 'D'},
	HeaderTrack:       18,
	HeaderLabelOffset: 0x90,
	DirInterleave:     3,
	FileInterleave:    10,
	BAMLabelOffset:    4,
	Zones: [maxZones]Zone{
		{17, 21},
		{24, 19},
		{30, 18},
		{35, 17},
	},
	BAMInterleave:      0,
	BAMLocationPolicy:  SpillsOver,
	BAMSectorCount:     2,
	TracksPerBAMSector: 35,
}

// D1581 is the flat, single-zone 1581 layout (3.5" MFM media, no
// zone-stealing, BAM in two sectors following the header).
var D1581 = Geometry{
	Tracks:            80,
	Format:            "D81",
	DOSType:           [2]byte{'3', 'D'},
	HeaderTrack:       40,
	HeaderLabelOffset: 0x04,
	DirInterleave:     1,
	FileInterleave:    1,
	BAMLabelOffset:    0,
	Zones: [maxZones]Zone{
		{80, 40},
	},
	BAMInterleave:      1,
	BAMLocationPolicy:  FollowsHeader,
	BAMSectorCount:     2,
	TracksPerBAMSector: 40,
}

// D2040 is the earliest IEEE-488 DOS1 layout (2040/3040): same track zones
// as the 1541 except the final zone drops to 16 sectors/track, and the BAM
// sits on the track immediately before the header/directory track.
var D2040 = Geometry{
	Tracks:            35,
	Format:            "D67",
	DOSType:           [2]byte{'1', ' '},
	HeaderTrack:       18,
	HeaderLabelOffset: 0x06,
	DirInterleave:     3,
	FileInterleave:    10,
	BAMLabelOffset:    0,
	Zones: [maxZones]Zone{
		{17, 21},
		{24, 19},
		{30, 18},
		{35, 16},
	},
	BAMInterleave:      0,
	BAMLocationPolicy:  TrackBeforeHeader,
	BAMSectorCount:     1,
	TracksPerBAMSector: 35,
}

// D8050 is the single-sided 8050 layout: 77 tracks, four zones, BAM
// following the header across two sectors.
var D8050 = Geometry{
	Tracks:            77,
	Format:            "D80",
	DOSType:           [2]byte{'2', 'C'},
	HeaderTrack:       38,
	HeaderLabelOffset: 0x06,
	DirInterleave:     3,
	FileInterleave:    7,
	BAMLabelOffset:    6,
	Zones: [maxZones]Zone{
		{39, 29},
		{53, 27},
		{64, 25},
		{77, 23},
	},
	BAMInterleave:      1,
	BAMLocationPolicy:  FollowsHeader,
	BAMSectorCount:     2,
	TracksPerBAMSector: 50,
}

// D8250 is the double-sided 8250: the 8050's single-side zones repeated on
// the reverse side (154 tracks total).
var D8250 = Geometry{
	DoubleSided:       true,
	Tracks:            154,
	Format:            "D82",
	DOSType:           [2]byte{'2', 'D'},
	HeaderTrack:       38,
	HeaderLabelOffset: 0x06,
	DirInterleave:     3,
	FileInterleave:    7,
	BAMLabelOffset:    6,
	Zones: [maxZones]Zone{
		{39, 29},
		{53, 27},
		{64, 25},
		{77, 23},
	},
	BAMInterleave:      1,
	BAMLocationPolicy:  FollowsHeader,
	BAMSectorCount:     4,
	TracksPerBAMSector: 50,
}

// d9000Series builds the flat, zone-stealing 9000-series layout shared by
// the 9030/9060/9090, which differ only in DOS-type byte.
func d9000Series(format string, dosType [2]byte) Geometry {
	return Geometry{
		Tracks:            454,
		Format:            format,
		DOSType:           dosType,
		HeaderTrack:       2,
		HeaderLabelOffset: 0x06,
		DirInterleave:     1,
		FileInterleave:    1,
		BAMLabelOffset:    6,
		Zones: [maxZones]Zone{
			{454, 32},
		},
		BAMInterleave:      1,
		BAMLocationPolicy:  StealsFromZones,
		BAMSectorCount:     4,
		TracksPerBAMSector: 114,
	}
}

var (
	D9030 = d9000Series("D93", [2]byte{'3', 'A'})
	D9060 = d9000Series("D96", [2]byte{'3', 'A'})
	D9090 = d9000Series("D99", [2]byte{'3', 'A'})
)
