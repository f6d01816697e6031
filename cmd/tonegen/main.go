package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chriscow/tonegen/pkg/audio/synth"
	"github.com/chriscow/tonegen/pkg/audio/wav"
	"github.com/chriscow/tonegen/pkg/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tonegen",
	Short: "Generate sine tones as 16-bit PCM WAV files",
	Long: `tonegen synthesizes sine tones and writes them to a mono 16-bit PCM
WAV file without any audio codec dependency.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionInfo())
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render a sequence of tones to a WAV file",
	Example: `  tonegen generate --out sound.wav --tone 440:4s --tone 493.883:4s
  tonegen generate --rate 8000 --volume 16000 --tone 1000:500ms`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		rate, _ := cmd.Flags().GetUint32("rate")
		volume, _ := cmd.Flags().GetInt("volume")
		specs, _ := cmd.Flags().GetStringArray("tone")

		logger := setupLogger()

		if volume < 0 || volume > 32767 {
			return fmt.Errorf("--volume must be between 0 and 32767, got %d", volume)
		}
		seq, err := parseTones(specs, volume)
		if err != nil {
			return err
		}

		return runGenerate(out, wav.Format{SampleRate: rate}, seq, logger)
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Print the header of a WAV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd.OutOrStdout(), args[0])
	},
}

func setupLogger() *slog.Logger {
	logFormat := os.Getenv("TONEGEN_LOG_FORMAT")
	logLevel := os.Getenv("TONEGEN_LOG_LEVEL")

	var handler slog.Handler
	opts := &slog.HandlerOptions{}

	switch logLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	// Logs go to stderr so inspect output stays clean
	if logFormat == "console" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func runGenerate(path string, format wav.Format, seq synth.Sequence, logger *slog.Logger) error {
	if err := format.Validate(); err != nil {
		return err
	}
	rate := int(format.SampleRate)
	total := seq.Len(rate)

	// Reject before creating the file or synthesizing anything.
	if size := uint64(total) * wav.BitsPerSample / 8; size > wav.MaxDataSize {
		return fmt.Errorf("%w: %d samples need %d bytes, limit %d",
			wav.ErrDataTooLarge, total, size, uint64(wav.MaxDataSize))
	}

	logger.Info("Generating tones",
		slog.String("path", path),
		slog.Int("sample_rate", rate),
		slog.Int("tones", len(seq)),
		slog.Int("samples", total))

	w, err := wav.Create(path, format)
	if err != nil {
		return err
	}

	// One tone at a time keeps memory bounded by the longest tone.
	for i, tone := range seq {
		samples := synth.Synthesize(tone.Frequency, tone.Volume, tone.Samples(rate), rate)
		if err := w.Write(samples); err != nil {
			w.Close()
			return fmt.Errorf("failed to write tone %d: %w", i, err)
		}
		logger.Debug("Wrote tone",
			slog.Int("index", i),
			slog.Float64("frequency", tone.Frequency),
			slog.Int("samples", len(samples)))
	}

	if err := w.Close(); err != nil {
		return err
	}

	logger.Info("Wrote WAV file",
		slog.String("path", path),
		slog.Int("bytes", wav.HeaderSize+int(w.DataSize())))
	return nil
}

func runInspect(out io.Writer, path string) error {
	r, err := wav.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	h := r.Header()
	fmt.Fprintf(out, "file:            %s\n", path)
	fmt.Fprintf(out, "chunk size:      %d\n", h.ChunkSize)
	fmt.Fprintf(out, "audio format:    %d\n", h.AudioFormat)
	fmt.Fprintf(out, "channels:        %d\n", h.NumChannels)
	fmt.Fprintf(out, "sample rate:     %d\n", h.SampleRate)
	fmt.Fprintf(out, "byte rate:       %d\n", h.ByteRate)
	fmt.Fprintf(out, "block align:     %d\n", h.BlockAlign)
	fmt.Fprintf(out, "bits per sample: %d\n", h.BitsPerSample)
	fmt.Fprintf(out, "data size:       %d\n", h.DataSize)
	fmt.Fprintf(out, "samples:         %d\n", h.Samples())
	fmt.Fprintf(out, "duration:        %s\n", h.Duration())
	return nil
}

func init() {
	generateCmd.Flags().String("out", "sound.wav", "Output WAV file path")
	generateCmd.Flags().Uint32("rate", wav.DefaultSampleRate, "Sample rate in Hz")
	generateCmd.Flags().Int("volume", 32000, "Peak amplitude (0 to 32767)")
	generateCmd.Flags().StringArray("tone", []string{"440:1s"}, "Tone as FREQ:DURATION, repeatable, played in order")

	rootCmd.AddCommand(versionCmd, generateCmd, inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
