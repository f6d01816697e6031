package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chriscow/tonegen/pkg/audio/synth"
)

// parseTones turns FREQ:DURATION specs such as "440:1s" or "493.883:250ms"
// into a sequence played at the given volume.
func parseTones(specs []string, volume int) (synth.Sequence, error) {
	seq := make(synth.Sequence, 0, len(specs))
	for _, spec := range specs {
		freqStr, durStr, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("invalid tone %q: expected FREQ:DURATION", spec)
		}

		freq, err := strconv.ParseFloat(freqStr, 64)
		if err != nil || freq < 0 {
			return nil, fmt.Errorf("invalid tone %q: bad frequency %q", spec, freqStr)
		}

		dur, err := time.ParseDuration(durStr)
		if err != nil || dur <= 0 {
			return nil, fmt.Errorf("invalid tone %q: bad duration %q", spec, durStr)
		}

		seq = append(seq, synth.Tone{Frequency: freq, Volume: volume, Duration: dur})
	}
	return seq, nil
}
