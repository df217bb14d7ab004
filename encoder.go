package srla

import (
	"io"

	"github.com/srla-audio/srla/internal/block"
	"github.com/srla-audio/srla/internal/partition"
)

// EncoderOptions configures a new Encoder, mapping directly onto the
// FileHeader fields plus the block-size bounds FrameCodec needs to decide
// between fixed and variable block sizes, per spec.md §4.11.
type EncoderOptions struct {
	NumChannels   uint16
	SamplingRate  uint32
	BitsPerSample uint16
	Preset        uint8

	// MaxBlockSamples is the FileHeader's max_num_samples_per_block and the
	// Partitioner's upper bound.
	MaxBlockSamples uint32
	// MinBlockSamples is the Partitioner's lower bound. If it equals
	// MaxBlockSamples, FrameCodec uses fixed-size blocks and never invokes
	// the Partitioner.
	MinBlockSamples uint32
	// NumLookaheadSamples is how many samples the Partitioner considers at
	// once when MinBlockSamples < MaxBlockSamples. Zero defaults to
	// MaxBlockSamples * 8.
	NumLookaheadSamples uint32
}

// ProgressFunc is the optional per-block callback FrameCodec's encode fires
// with the running totals, per spec.md §4.11.
type ProgressFunc func(totalSamples, progressSamples int64, blockBytes int)

// Encoder is a single-use, single-threaded SRLA stream encoder: construct
// it with NewEncoder, call EncodeAll once with the full PCM buffer, and
// discard it. Concurrent use of one Encoder is disallowed, per spec.md §5.
type Encoder struct {
	w          io.Writer
	opts       EncoderOptions
	cfg        block.Config
	numSamples int

	// OnProgress, if set before EncodeAll is called, receives one call per
	// emitted block.
	OnProgress ProgressFunc
}

// NewEncoder validates opts, writes the FileHeader for a stream of
// numSamples total per-channel samples, and returns an Encoder ready to
// receive the PCM data via EncodeAll.
func NewEncoder(w io.Writer, opts EncoderOptions, numSamples uint32) (*Encoder, error) {
	header := &FileHeader{
		NumChannels:           opts.NumChannels,
		NumSamples:            numSamples,
		SamplingRate:          opts.SamplingRate,
		BitsPerSample:         opts.BitsPerSample,
		MaxNumSamplesPerBlock: opts.MaxBlockSamples,
		Preset:                opts.Preset,
	}
	if err := header.Validate(); err != nil {
		return nil, err
	}
	if opts.MinBlockSamples == 0 {
		opts.MinBlockSamples = opts.MaxBlockSamples
	}
	if opts.MinBlockSamples > opts.MaxBlockSamples {
		return nil, newError(InvalidArgument, "MinBlockSamples must be <= MaxBlockSamples")
	}
	if opts.NumLookaheadSamples == 0 {
		opts.NumLookaheadSamples = opts.MaxBlockSamples * 8
	}

	preset, err := PresetByIndex(int(opts.Preset))
	if err != nil {
		return nil, err
	}

	if err := encodeHeader(w, header); err != nil {
		return nil, err
	}

	return &Encoder{
		w:          w,
		opts:       opts,
		numSamples: int(numSamples),
		cfg: block.Config{
			BitsPerSample: int(opts.BitsPerSample),
			MaxOrder:      preset.MaxOrder,
			OrderTactic:   preset.OrderTactic,
			SVRIterations: preset.SVRIterations,
			Margins:       preset.Margins,
			MaxLTPPeriod:  255,
		},
	}, nil
}

// EncodeAll consumes channels (one []int32 per channel, all of equal
// length) and writes the complete sequence of blocks, per spec.md §4.11.
// channels must have opts.NumChannels entries, matching the NumChannels
// the Encoder was constructed with.
func (enc *Encoder) EncodeAll(channels [][]int32) error {
	if len(channels) != int(enc.opts.NumChannels) {
		return newErrorf(InvalidArgument, "got %d channels, want %d", len(channels), enc.opts.NumChannels)
	}
	total := 0
	if len(channels) > 0 {
		total = len(channels[0])
	}
	for _, ch := range channels {
		if len(ch) != total {
			return newError(InvalidArgument, "channel length mismatch")
		}
	}
	if total != enc.numSamples {
		return newErrorf(InvalidArgument, "got %d samples per channel, want %d (as declared to NewEncoder)", total, enc.numSamples)
	}

	if enc.opts.MinBlockSamples == enc.opts.MaxBlockSamples {
		return enc.encodeFixedBlocks(channels, total)
	}
	return enc.encodeVariableBlocks(channels, total)
}

func (enc *Encoder) encodeFixedBlocks(channels [][]int32, total int) error {
	blockSize := int(enc.opts.MaxBlockSamples)
	progress := 0
	for start := 0; start < total; start += blockSize {
		end := start + blockSize
		if end > total {
			end = total
		}
		sub := sliceChannels(channels, start, end)
		n, err := encodeBlockFrame(enc.w, enc.cfg, sub)
		if err != nil {
			return err
		}
		progress += end - start
		enc.reportProgress(int64(total), int64(progress), n)
	}
	return nil
}

func (enc *Encoder) encodeVariableBlocks(channels [][]int32, total int) error {
	lookahead := int(enc.opts.NumLookaheadSamples)
	minB := int(enc.opts.MinBlockSamples)
	maxB := int(enc.opts.MaxBlockSamples)
	progress := 0
	for start := 0; start < total; start += lookahead {
		end := start + lookahead
		if end > total {
			end = total
		}
		window := sliceChannels(channels, start, end)
		plans, err := partition.Search(enc.cfg, window, minB, maxB)
		if err != nil {
			return wrapError(Unclassified, err)
		}
		for _, p := range plans {
			n, err := writeBlockFrame(enc.w, p.Type, p.Payload, p.Length)
			if err != nil {
				return err
			}
			progress += p.Length
			enc.reportProgress(int64(total), int64(progress), n)
		}
	}
	return nil
}

func (enc *Encoder) reportProgress(total, progress int64, blockBytes int) {
	if enc.OnProgress == nil {
		return
	}
	enc.OnProgress(total, progress, blockBytes)
}

func sliceChannels(channels [][]int32, start, end int) [][]int32 {
	out := make([][]int32, len(channels))
	for i, ch := range channels {
		out[i] = ch[start:end]
	}
	return out
}
