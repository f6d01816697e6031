// Package synth generates 16-bit PCM sine tones.
//
// Amplitudes are not clamped. A volume above 32767 produces values that wrap
// around the int16 range, so callers pick a volume that fits.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"time"
)

var (
	// ErrBufferTooSmall is returned when a caller supplied buffer cannot hold
	// the requested samples.
	ErrBufferTooSmall = errors.New("synth: buffer too small")

	// ErrTooLong is returned when a sequence is too long to render in memory.
	ErrTooLong = errors.New("synth: sequence too long")
)

// Synthesize returns sampleCount samples of a sine wave at frequencyHz.
// Sample i is round(volume * sin(2π * frequencyHz * i / sampleRate)),
// wrapped to int16. sampleRate must be positive.
func Synthesize(frequencyHz float64, volume, sampleCount, sampleRate int) []int16 {
	if sampleCount <= 0 {
		return []int16{}
	}
	samples := make([]int16, sampleCount)
	Fill(samples, frequencyHz, volume, sampleRate)
	return samples
}

// Fill overwrites every element of dst with the sine wave Synthesize would
// produce for len(dst) samples.
func Fill(dst []int16, frequencyHz float64, volume, sampleRate int) {
	if sampleRate <= 0 {
		panic(fmt.Sprintf("synth: non-positive sample rate %d", sampleRate))
	}
	for i := range dst {
		t := float64(i) / float64(sampleRate)
		dst[i] = toInt16(float64(volume) * math.Sin(2*math.Pi*frequencyHz*t))
	}
}

// SampleCount returns the number of samples covering d at sampleRate,
// truncated to a whole sample. Counts that do not fit an int saturate at
// math.MaxInt.
func SampleCount(d time.Duration, sampleRate int) int {
	if d <= 0 || sampleRate <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(d), uint64(sampleRate))
	if hi >= uint64(time.Second) {
		return math.MaxInt
	}
	q, _ := bits.Div64(hi, lo, uint64(time.Second))
	if q > math.MaxInt {
		return math.MaxInt
	}
	return int(q)
}

// toInt16 rounds half away from zero and keeps the low 16 bits, so an
// out-of-range amplitude wraps instead of saturating. Converting the float
// straight to int16 would be implementation-specific for such values.
func toInt16(v float64) int16 {
	return int16(int64(math.Round(v)))
}
