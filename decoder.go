package srla

import (
	"io"

	"github.com/srla-audio/srla/internal/block"
)

// Decoder is a single-use, single-threaded SRLA stream decoder: construct
// it with NewDecoder (which parses and validates the FileHeader), then call
// DecodeAll once. Concurrent use of one Decoder is disallowed, per spec.md
// §5.
type Decoder struct {
	r      io.Reader
	Header FileHeader
	cfg    block.Config

	// VerifyChecksum controls whether each block's Fletcher-16 checksum is
	// checked against the BlockHeader's stored value; a mismatch is
	// reported as DataCorruption. Defaults to true.
	VerifyChecksum bool
}

// NewDecoder reads and validates the FileHeader from r and returns a
// Decoder ready to produce PCM via DecodeAll.
func NewDecoder(r io.Reader) (*Decoder, error) {
	h, err := decodeHeader(r)
	if err != nil {
		return nil, err
	}
	preset, err := h.ResolvePreset()
	if err != nil {
		return nil, err
	}
	return &Decoder{
		r:              r,
		Header:         *h,
		VerifyChecksum: true,
		cfg: block.Config{
			BitsPerSample: int(h.BitsPerSample),
			MaxOrder:      preset.MaxOrder,
			OrderTactic:   preset.OrderTactic,
			SVRIterations: preset.SVRIterations,
			Margins:       preset.Margins,
			MaxLTPPeriod:  255,
		},
	}, nil
}

// DecodeAll consumes blocks from the stream until Header.NumSamples samples
// have been produced per channel, or the input is exhausted, per spec.md
// §4.11. It returns one []int32 per channel.
func (dec *Decoder) DecodeAll() ([][]int32, error) {
	numChannels := int(dec.Header.NumChannels)
	total := int(dec.Header.NumSamples)

	out := make([][]int32, numChannels)
	for c := range out {
		out[c] = make([]int32, 0, total)
	}

	got := 0
	for got < total {
		channels, err := decodeBlockFrame(dec.r, dec.cfg, numChannels, dec.VerifyChecksum)
		if err == io.EOF {
			return nil, newErrorf(InsufficientData, "stream ended after %d of %d samples", got, total)
		}
		if err != nil {
			return nil, err
		}
		n := 0
		if len(channels) > 0 {
			n = len(channels[0])
		}
		for c := range out {
			out[c] = append(out[c], channels[c]...)
		}
		got += n
	}
	return out, nil
}
