package srla

import (
	"encoding/binary"
	"io"

	"github.com/srla-audio/srla/internal/block"
	"github.com/srla-audio/srla/internal/checksum"
)

// blockSyncCode marks the start of each BlockHeader, per spec.md §3.
const blockSyncCode uint16 = 0xFFFF

// BlockHeaderSize is the fixed on-wire size of a BlockHeader, per spec.md §3:
// sync code (2), block_size (4), checksum (2), block_type (1),
// num_samples_in_block (2).
const BlockHeaderSize = 11

// encodeBlockFrame runs BlockCodec on channels and writes the resulting
// BlockHeader + payload to w, per spec.md §4.9 step 5. It returns the total
// number of bytes written (BlockHeaderSize + payload), for progress
// reporting.
func encodeBlockFrame(w io.Writer, cfg block.Config, channels [][]int32) (int, error) {
	typ, payload, err := block.EncodeBlock(cfg, channels)
	if err != nil {
		return 0, wrapError(Unclassified, err)
	}
	numSamples := 0
	if len(channels) > 0 {
		numSamples = len(channels[0])
	}
	return writeBlockFrame(w, typ, payload, numSamples)
}

// writeBlockFrame writes the 11-byte BlockHeader plus payload for an
// already-encoded block (used directly by the partition-driven path, which
// has already run BlockCodec per candidate span while searching), returning
// the total number of bytes written.
func writeBlockFrame(w io.Writer, typ block.Type, payload []byte, numSamples int) (int, error) {
	// block_size counts everything from the checksum field through the end
	// of the block: 2 (checksum) + 1 (type) + 2 (num_samples) + payload.
	blockSize := uint32(2 + 1 + 2 + len(payload))

	body := make([]byte, 0, 3+len(payload))
	body = append(body, byte(typ))
	body = append(body, byte(uint16(numSamples)>>8), byte(uint16(numSamples)))
	body = append(body, payload...)
	sum := checksum.Checksum(body)

	if err := binary.Write(w, binary.BigEndian, blockSyncCode); err != nil {
		return 0, wrapError(Unclassified, err)
	}
	if err := binary.Write(w, binary.BigEndian, blockSize); err != nil {
		return 0, wrapError(Unclassified, err)
	}
	if err := binary.Write(w, binary.BigEndian, sum); err != nil {
		return 0, wrapError(Unclassified, err)
	}
	if _, err := w.Write(body); err != nil {
		return 0, wrapError(Unclassified, err)
	}
	return 2 + 4 + 2 + len(body), nil
}

// decodeBlockFrame reads one BlockHeader and its payload from r, optionally
// verifying the checksum, and decodes it via BlockCodec.
func decodeBlockFrame(r io.Reader, cfg block.Config, numChannels int, verifyChecksum bool) ([][]int32, error) {
	var sync uint16
	if err := binary.Read(r, binary.BigEndian, &sync); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, newError(InsufficientData, "truncated BlockHeader sync code")
	}
	if sync != blockSyncCode {
		return nil, newErrorf(InvalidFormat, "bad block sync code %#x, want %#x", sync, blockSyncCode)
	}

	var blockSize uint32
	if err := binary.Read(r, binary.BigEndian, &blockSize); err != nil {
		return nil, newError(InsufficientData, "truncated BlockHeader block_size")
	}
	if blockSize < 5 {
		return nil, newErrorf(InvalidFormat, "block_size %d too small to hold type+num_samples", blockSize)
	}

	var wantSum uint16
	if err := binary.Read(r, binary.BigEndian, &wantSum); err != nil {
		return nil, newError(InsufficientData, "truncated BlockHeader checksum")
	}

	body := make([]byte, blockSize-2)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, newError(InsufficientData, "truncated block body")
	}

	if verifyChecksum {
		if gotSum := checksum.Checksum(body); gotSum != wantSum {
			return nil, newErrorf(DataCorruption, "checksum mismatch: got %#04x, want %#04x", gotSum, wantSum)
		}
	}

	typ := block.Type(body[0])
	numSamples := int(body[1])<<8 | int(body[2])
	payload := body[3:]

	channels, err := block.DecodeBlock(cfg, typ, payload, numChannels, numSamples)
	if err != nil {
		return nil, wrapError(Unclassified, err)
	}
	return channels, nil
}
