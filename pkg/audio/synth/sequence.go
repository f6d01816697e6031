package synth

import (
	"fmt"
	"math"
	"time"
)

// MaxRenderSamples bounds the buffer Render will allocate. It is the most
// 16-bit samples a WAV data chunk can describe.
const MaxRenderSamples = math.MaxUint32 / 2

// Tone is a single sine tone held for Duration.
type Tone struct {
	Frequency float64 // Hz
	Volume    int     // peak amplitude
	Duration  time.Duration
}

// Samples returns the number of samples the tone occupies at sampleRate.
func (t Tone) Samples(sampleRate int) int {
	return SampleCount(t.Duration, sampleRate)
}

// Sequence is a list of tones played back to back. Each tone starts at phase
// zero.
type Sequence []Tone

// Len returns the total number of samples of the sequence at sampleRate,
// saturating at math.MaxInt.
func (s Sequence) Len(sampleRate int) int {
	n := 0
	for _, t := range s {
		c := t.Samples(sampleRate)
		if c > math.MaxInt-n {
			return math.MaxInt
		}
		n += c
	}
	return n
}

// Render returns the whole sequence in a buffer sized from the tone
// durations. Sequences longer than MaxRenderSamples fail with ErrTooLong
// before anything is allocated.
func (s Sequence) Render(sampleRate int) ([]int16, error) {
	need := s.Len(sampleRate)
	if need > MaxRenderSamples {
		return nil, fmt.Errorf("%w: %d samples, limit %d", ErrTooLong, need, MaxRenderSamples)
	}
	buf := make([]int16, need)
	if _, err := s.RenderInto(buf, sampleRate); err != nil {
		return nil, err
	}
	return buf, nil
}

// RenderInto fills dst with the sequence and returns the number of samples
// written. It fails with ErrBufferTooSmall, leaving dst untouched, when dst is
// shorter than the sequence.
func (s Sequence) RenderInto(dst []int16, sampleRate int) (int, error) {
	need := s.Len(sampleRate)
	if need > len(dst) {
		return 0, fmt.Errorf("%w: need %d samples, have %d", ErrBufferTooSmall, need, len(dst))
	}

	n := 0
	for _, t := range s {
		end := n + t.Samples(sampleRate)
		Fill(dst[n:end], t.Frequency, t.Volume, sampleRate)
		n = end
	}
	return n, nil
}
