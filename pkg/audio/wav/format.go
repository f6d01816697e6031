package wav

import (
	"fmt"
	"math"
)

const (
	// DefaultSampleRate is the rate used when none is configured.
	DefaultSampleRate = 44100

	// NumChannels and BitsPerSample are fixed: mono, 16-bit signed PCM.
	NumChannels   = 1
	BitsPerSample = 16

	// HeaderSize is the size of the canonical header preceding the samples.
	HeaderSize = 44

	bytesPerSample = BitsPerSample / 8
	formatPCM      = 1
	fmtChunkSize   = 16

	// Offsets of the two fields patched on Close.
	riffSizeOffset = 4
	dataSizeOffset = 40

	// riffSizeOffset field counts everything after itself: 36 header bytes
	// plus the data.
	riffSizeOverhead = HeaderSize - 8

	// MaxDataSize is the largest data chunk, in bytes, whose RIFF size still
	// fits the 32-bit header field.
	MaxDataSize = math.MaxUint32 - riffSizeOverhead
)

// Format describes the PCM stream stored in the container. Only the sample
// rate is configurable.
type Format struct {
	SampleRate uint32
}

// DefaultFormat returns the 44.1kHz mono 16-bit format.
func DefaultFormat() Format {
	return Format{SampleRate: DefaultSampleRate}
}

// Validate reports whether the format can be written.
func (f Format) Validate() error {
	if f.SampleRate == 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidFormat)
	}
	if uint64(f.SampleRate)*NumChannels*bytesPerSample > 0xFFFFFFFF {
		return fmt.Errorf("%w: sample rate %d overflows byte rate", ErrInvalidFormat, f.SampleRate)
	}
	return nil
}

// ByteRate is the number of data bytes per second of audio.
func (f Format) ByteRate() uint32 {
	return f.SampleRate * NumChannels * bytesPerSample
}

// BlockAlign is the size in bytes of one sample frame.
func (f Format) BlockAlign() uint16 {
	return NumChannels * bytesPerSample
}
