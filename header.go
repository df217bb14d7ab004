// Package srla provides access to the SRLA (lossless integer-PCM) audio
// codec: a FileHeader, a preset registry, and a single-threaded streaming
// Encoder/Decoder pair built on top of the internal/block BlockCodec and
// internal/partition variable block-size search.
package srla

import (
	"encoding/binary"
	"io"
)

// magic is the four-byte ASCII signature every SRLA stream starts with.
var magic = [4]byte{'1', '2', '4', '9'}

// formatVersion and codecVersion are the only values this package accepts
// or emits; spec.md §6 requires decoders to reject anything else.
const (
	formatVersion uint32 = 7
	codecVersion  uint32 = 12
)

// FileHeaderSize is the fixed on-wire size of FileHeader, per spec.md §3.
const FileHeaderSize = 29

// FileHeader is SRLA's 29-byte stream header, per spec.md §3 and §6.
type FileHeader struct {
	NumChannels           uint16
	NumSamples            uint32
	SamplingRate          uint32
	BitsPerSample         uint16
	MaxNumSamplesPerBlock uint32
	Preset                uint8
}

// Validate checks the field ranges spec.md §6 enforces on both sides:
// num_channels in [1,8], num_samples >= 1, sampling_rate >= 1,
// bits_per_sample in {8,16,24}, max_num_samples_per_block >= 1, preset < 7.
func (h *FileHeader) Validate() error {
	switch {
	case h.NumChannels < 1 || h.NumChannels > 8:
		return newErrorf(InvalidFormat, "num_channels %d out of range [1, 8]", h.NumChannels)
	case h.NumSamples < 1:
		return newError(InvalidFormat, "num_samples must be >= 1")
	case h.SamplingRate < 1:
		return newError(InvalidFormat, "sampling_rate must be >= 1")
	case h.BitsPerSample != 8 && h.BitsPerSample != 16 && h.BitsPerSample != 24:
		return newErrorf(InvalidFormat, "bits_per_sample %d not one of {8,16,24}", h.BitsPerSample)
	case h.MaxNumSamplesPerBlock < 1:
		return newError(InvalidFormat, "max_num_samples_per_block must be >= 1")
	case int(h.Preset) >= NumPresets:
		return newErrorf(InvalidFormat, "preset %d out of range [0, %d)", h.Preset, NumPresets)
	}
	return nil
}

// ResolvePreset resolves h's preset field against the registry.
func (h *FileHeader) ResolvePreset() (Preset, error) {
	return PresetByIndex(int(h.Preset))
}

// encodeHeader writes h to w in the fixed 29-byte layout. format_version and
// codec_version are always the package constants, matching the original's
// SRLAEncoder_EncodeHeader which hardcodes its own version macros rather
// than trusting caller-supplied fields.
func encodeHeader(w io.Writer, h *FileHeader) error {
	if err := h.Validate(); err != nil {
		return err
	}
	fields := []interface{}{
		magic,
		formatVersion,
		codecVersion,
		h.NumChannels,
		h.NumSamples,
		h.SamplingRate,
		h.BitsPerSample,
		h.MaxNumSamplesPerBlock,
		h.Preset,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.BigEndian, f); err != nil {
			return wrapError(Unclassified, err)
		}
	}
	return nil
}

// decodeHeader reads and validates a FileHeader from r.
func decodeHeader(r io.Reader) (*FileHeader, error) {
	var gotMagic [4]byte
	if err := binary.Read(r, binary.BigEndian, &gotMagic); err != nil {
		return nil, insufficientOrUnclassified(err)
	}
	if gotMagic != magic {
		return nil, newErrorf(InvalidFormat, "bad magic %q, want %q", gotMagic, magic)
	}

	var gotFormat, gotCodec uint32
	if err := binary.Read(r, binary.BigEndian, &gotFormat); err != nil {
		return nil, insufficientOrUnclassified(err)
	}
	if err := binary.Read(r, binary.BigEndian, &gotCodec); err != nil {
		return nil, insufficientOrUnclassified(err)
	}
	if gotFormat != formatVersion {
		return nil, newErrorf(InvalidFormat, "format_version %d, want %d", gotFormat, formatVersion)
	}
	if gotCodec != codecVersion {
		return nil, newErrorf(InvalidFormat, "codec_version %d, want %d", gotCodec, codecVersion)
	}

	h := &FileHeader{}
	fields := []interface{}{
		&h.NumChannels,
		&h.NumSamples,
		&h.SamplingRate,
		&h.BitsPerSample,
		&h.MaxNumSamplesPerBlock,
		&h.Preset,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return nil, insufficientOrUnclassified(err)
		}
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// insufficientOrUnclassified classifies a binary.Read failure: EOF/
// ErrUnexpectedEOF means the stream was truncated mid-header, anything else
// is an unexpected I/O error.
func insufficientOrUnclassified(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return newError(InsufficientData, "truncated FileHeader")
	}
	return wrapError(Unclassified, err)
}
