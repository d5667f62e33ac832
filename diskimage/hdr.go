package diskimage

import "cbmdisk/petscii"

// Header is the disk label/ID/DOS-type block parsed from the header
// sector. Label is kept both as raw PETSCII bytes (for round-trip fidelity)
// and as an ASCII projection for display.
type Header struct {
	Label   string // ASCII projection, trimmed
	ID      string
	DOSType [2]byte

	rawLabel []byte // 16 bytes, PETSCII, 0xA0-padded
	rawID    []byte // 2 bytes
}

func newHeader() *Header {
	return &Header{rawLabel: make([]byte, 16), rawID: make([]byte, 2)}
}

// Parse reads the header block at (hdr_track, 0) and unpacks the label/ID/
// DOS-type fields starting at hdr_label_offset.
func (h *Header) Parse(img *Image) error {
	block, err := img.ReadBlock(img.geometry.HeaderTrack, 0)
	if err != nil {
		return wrapErr(InvalidImage, "read header sector", err)
	}
	off := int(img.geometry.HeaderLabelOffset)
	if off+23 > len(block) {
		return newErr(InvalidImage, "header block too short for label offset")
	}
	h.rawLabel = append([]byte(nil), block[off:off+16]...)
	off += 16 + 2 // skip the two 0xA0 padding bytes
	h.rawID = append([]byte(nil), block[off:off+2]...)
	off += 2 + 1 // skip the single 0xA0 padding byte
	h.DOSType = [2]byte{block[off], block[off+1]}

	h.Label = petscii.Trim(h.rawLabel)
	h.ID = petscii.Trim(h.rawID)
	return nil
}

// Sync writes the in-memory header fields back into the header block.
func (h *Header) Sync(img *Image) error {
	block, err := img.ReadBlock(img.geometry.HeaderTrack, 0)
	if err != nil {
		return wrapErr(InvalidImage, "read header sector", err)
	}
	off := int(img.geometry.HeaderLabelOffset)
	copy(block[off:off+16], h.rawLabel)
	block[off+16] = petscii.PadByte
	block[off+17] = petscii.PadByte
	copy(block[off+18:off+20], h.rawID)
	block[off+20] = petscii.PadByte
	block[off+21] = h.DOSType[0]
	block[off+22] = h.DOSType[1]
	return img.WriteBlock(img.geometry.HeaderTrack, 0, block)
}

// SetHeaderLabel normalizes label/id to upper-cased, 0xA0-padded PETSCII
// and, when dosType is non-nil, updates the DOS-type bytes too.
func (h *Header) SetHeaderLabel(label, id string, dosType *[2]byte) {
	h.rawLabel = petscii.Pad(label, 16)
	h.rawID = petscii.Pad(id, 2)
	h.Label = petscii.Trim(h.rawLabel)
	h.ID = petscii.Trim(h.rawID)
	if dosType != nil {
		h.DOSType = *dosType
	}
}
