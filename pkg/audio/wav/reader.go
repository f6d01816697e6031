package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Header represents the fields of a WAV file header
type Header struct {
	ChunkSize     uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// Samples returns the number of sample frames in the data chunk.
func (h Header) Samples() int {
	if h.BlockAlign == 0 {
		return 0
	}
	return int(h.DataSize / uint32(h.BlockAlign))
}

// Duration returns the playing time of the data chunk.
func (h Header) Duration() time.Duration {
	if h.SampleRate == 0 {
		return 0
	}
	return time.Duration(h.Samples()) * time.Second / time.Duration(h.SampleRate)
}

// Reader reads 16-bit PCM samples back from a WAV file
type Reader struct {
	file   *os.File
	header Header
}

// Open opens a WAV file and positions it at the start of the sample data.
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	header, err := ReadHeader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}

	return &Reader{file: file, header: header}, nil
}

// Header returns the WAV file header information
func (r *Reader) Header() Header {
	return r.header
}

// ReadSamples reads the whole data chunk as 16-bit mono samples.
func (r *Reader) ReadSamples() ([]int16, error) {
	if r.header.BitsPerSample != BitsPerSample || r.header.NumChannels != NumChannels {
		return nil, fmt.Errorf("only %d-bit mono is supported, got %d-bit %d channels",
			BitsPerSample, r.header.BitsPerSample, r.header.NumChannels)
	}

	// The size comes from the file, so let the read grow the buffer rather
	// than trusting it for the allocation.
	data, err := io.ReadAll(io.LimitReader(r.file, int64(r.header.DataSize)))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}
	if len(data) < int(r.header.DataSize) {
		return nil, fmt.Errorf("failed to read audio data: got %d of %d bytes: %w",
			len(data), r.header.DataSize, io.ErrUnexpectedEOF)
	}

	samples := make([]int16, len(data)/bytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*bytesPerSample:]))
	}
	return samples, nil
}

// Close closes the WAV file
func (r *Reader) Close() error {
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// ReadHeader parses the RIFF header, the fmt chunk and the data chunk header
// from r, skipping any other chunks. On success r is positioned at the first
// sample.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header

	var riffHeader [12]byte
	if _, err := io.ReadFull(r, riffHeader[:]); err != nil {
		return h, fmt.Errorf("failed to read RIFF header: %w", err)
	}
	if string(riffHeader[0:4]) != "RIFF" {
		return h, errors.New("not a valid RIFF file")
	}
	if string(riffHeader[8:12]) != "WAVE" {
		return h, errors.New("not a valid WAVE file")
	}
	h.ChunkSize = binary.LittleEndian.Uint32(riffHeader[4:8])

	if err := readFmtChunk(r, &h); err != nil {
		return h, err
	}

	size, err := seekChunk(r, "data")
	if err != nil {
		return h, err
	}
	h.DataSize = size

	return h, nil
}

func readFmtChunk(r io.Reader, h *Header) error {
	size, err := seekChunk(r, "fmt ")
	if err != nil {
		return err
	}
	if size < fmtChunkSize {
		return fmt.Errorf("fmt chunk too small: %d bytes", size)
	}

	var fmtData [fmtChunkSize]byte
	if _, err := io.ReadFull(r, fmtData[:]); err != nil {
		return fmt.Errorf("failed to read fmt data: %w", err)
	}

	h.AudioFormat = binary.LittleEndian.Uint16(fmtData[0:2])
	if h.AudioFormat != formatPCM {
		return fmt.Errorf("only PCM format is supported, got format %d", h.AudioFormat)
	}
	h.NumChannels = binary.LittleEndian.Uint16(fmtData[2:4])
	h.SampleRate = binary.LittleEndian.Uint32(fmtData[4:8])
	h.ByteRate = binary.LittleEndian.Uint32(fmtData[8:12])
	h.BlockAlign = binary.LittleEndian.Uint16(fmtData[12:14])
	h.BitsPerSample = binary.LittleEndian.Uint16(fmtData[14:16])

	// Skip any remaining fmt data and the pad byte of an odd sized chunk
	return skip(r, int64(size-fmtChunkSize)+int64(size&1))
}

// seekChunk advances r past chunk headers until it finds id and returns the
// size of that chunk.
func seekChunk(r io.Reader, id string) (uint32, error) {
	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			return 0, fmt.Errorf("failed to find %q chunk: %w", id, err)
		}

		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])
		if string(chunkHeader[0:4]) == id {
			return chunkSize, nil
		}

		// RIFF chunks are padded to an even length
		if err := skip(r, int64(chunkSize)+int64(chunkSize&1)); err != nil {
			return 0, fmt.Errorf("failed to skip chunk: %w", err)
		}
	}
}

func skip(r io.Reader, n int64) error {
	if n == 0 {
		return nil
	}
	if s, ok := r.(io.Seeker); ok {
		_, err := s.Seek(n, io.SeekCurrent)
		return err
	}
	_, err := io.CopyN(io.Discard, r, n)
	return err
}
