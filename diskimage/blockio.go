package diskimage

import (
	"cbmdisk/geometry"

	"github.com/pkg/errors"
)

// ReadBlock copies the 256-byte payload at (t, s).
func (img *Image) ReadBlock(t uint16, s uint8) ([]byte, error) {
	off, err := img.geometry.GetSectorOffset(t, s)
	if err != nil {
		return nil, wrapErr(GeometryErrorKind, "read block", err)
	}
	start := off * geometry.BlockSize
	buf := make([]byte, geometry.BlockSize)
	copy(buf, img.buf[start:start+geometry.BlockSize])
	return buf, nil
}

// WriteBlock overwrites the 256-byte payload at (t, s). data shorter than a
// full block is zero-padded; longer is truncated to fit.
func (img *Image) WriteBlock(t uint16, s uint8, data []byte) error {
	off, err := img.geometry.GetSectorOffset(t, s)
	if err != nil {
		return wrapErr(GeometryErrorKind, "write block", err)
	}
	start := off * geometry.BlockSize
	n := copy(img.buf[start:start+geometry.BlockSize], data)
	for i := start + n; i < start+geometry.BlockSize; i++ {
		img.buf[i] = 0
	}
	return nil
}

// WriteBytes splices data into the buffer at offset, preserving the
// buffer's overall length (it must fit within the existing buffer).
func (img *Image) WriteBytes(offset int, data []byte) error {
	if offset < 0 || offset+len(data) > len(img.buf) {
		return newErr(IoError, "write offset out of range")
	}
	copy(img.buf[offset:offset+len(data)], data)
	return nil
}

// ReadTSLink reads the two link bytes at the start of (t, s), applying the
// geometry's link adjustment.
func (img *Image) ReadTSLink(t uint16, s uint8) (geometry.TS, error) {
	off, err := img.geometry.GetSectorOffset(t, s)
	if err != nil {
		return geometry.TS{}, wrapErr(GeometryErrorKind, "read t/s link", err)
	}
	start := off * geometry.BlockSize
	return decodeLink(img.geometry, img.buf[start], img.buf[start+1]), nil
}

// WriteTSLink writes the two link bytes at the start of (t, s), applying
// the geometry's reverse link adjustment when it calls for one.
func (img *Image) WriteTSLink(t uint16, s uint8, next geometry.TS) error {
	off, err := img.geometry.GetSectorOffset(t, s)
	if err != nil {
		return wrapErr(GeometryErrorKind, "write t/s link", err)
	}
	start := off * geometry.BlockSize
	rawT, rawS := encodeLink(img.geometry, next)
	img.buf[start] = rawT
	img.buf[start+1] = rawS

	if needsLinkAdjustment(img.geometry) && next.Track != 0 {
		decoded := decodeLink(img.geometry, rawT, rawS)
		if decoded != next {
			img.warn("link-adjust-lossy", errors.Errorf(
				"t/s link (%d,%d) does not survive the 9000-series round trip (decodes back as %v)",
				next.Track, next.Sector, decoded).Error())
		}
	}
	return nil
}
