package diskimage

import "cbmdisk/geometry"

// payloadBytesPerBlock is the usable byte count in a file block once its
// 2-byte T/S link header is excluded.
const payloadBytesPerBlock = 254

// BuildChain follows T/S links starting at (t, s), returning every visited
// block in order. It stops when a block's own next-track link is 0 (the
// block terminating the chain is still included) or once max blocks have
// been collected, whichever comes first. max <= 0 means unbounded.
func (img *Image) BuildChain(t uint16, s uint8, max int) ([]geometry.TS, error) {
	var blocks []geometry.TS
	cur := geometry.TS{Track: t, Sector: s}
	for {
		blocks = append(blocks, cur)
		if max > 0 && len(blocks) >= max {
			return blocks, nil
		}
		next, err := img.ReadTSLink(cur.Track, cur.Sector)
		if err != nil {
			return nil, err
		}
		if next.Track == 0 {
			return blocks, nil
		}
		cur = next
	}
}

// ReadFileChain follows the chain starting at (t, s) and returns the
// concatenated payload bytes: every block contributes its full 254-byte
// payload except the last, whose link sector byte names the last valid
// offset inside that block (payload length = that value - 1).
func (img *Image) ReadFileChain(t uint16, s uint8, max int) ([]byte, error) {
	blocks, err := img.BuildChain(t, s, max)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, nil
	}

	var out []byte
	for i, ts := range blocks {
		block, err := img.ReadBlock(ts.Track, ts.Sector)
		if err != nil {
			return nil, err
		}
		if i < len(blocks)-1 {
			out = append(out, block[2:]...)
			continue
		}
		link, err := img.ReadTSLink(ts.Track, ts.Sector)
		if err != nil {
			return nil, err
		}
		lastLen := int(link.Sector) - 1
		if lastLen < 0 {
			lastLen = 0
		}
		if 2+lastLen > len(block) {
			lastLen = len(block) - 2
		}
		out = append(out, block[2:2+lastLen]...)
	}
	return out, nil
}

// CreateFileChain splits a byte payload into ordered 254-byte chunks
// (payload only, no link header yet; block allocation assigns the actual
// T/S coordinates). An empty payload produces zero chunks rather than one
// degenerate empty chunk.
func CreateFileChain(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	var chunks [][]byte
	for off := 0; off < len(data); off += payloadBytesPerBlock {
		end := off + payloadBytesPerBlock
		if end > len(data) {
			end = len(data)
		}
		chunk := make([]byte, end-off)
		copy(chunk, data[off:end])
		chunks = append(chunks, chunk)
	}
	return chunks
}
