package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
)

// encodeChunk bounds the scratch buffer used to serialize samples.
const encodeChunk = 4096

// Writer writes a mono 16-bit PCM WAV stream.
//
// The header is written with zero size fields when the Writer is created and
// patched with the real sizes on Close, so samples are never buffered in
// memory. A Writer is not safe for concurrent use.
type Writer struct {
	ws       io.WriteSeeker
	path     string
	start    int64 // sink offset of the RIFF header
	format   Format
	dataSize uint32
	buf      []byte
}

// Create creates or truncates the file at path and writes a provisional
// header. If the file cannot be created, or the header cannot be written, no
// file is left behind.
func Create(path string, format Format) (*Writer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	w, err := newWriter(file, path, format)
	if err != nil {
		file.Close()
		os.Remove(path)
		return nil, err
	}
	return w, nil
}

// NewWriter writes a provisional header to ws at its current position.
// Close patches the header relative to that position and closes ws if it
// implements io.Closer.
func NewWriter(ws io.WriteSeeker, format Format) (*Writer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	return newWriter(ws, "", format)
}

func newWriter(ws io.WriteSeeker, path string, format Format) (*Writer, error) {
	start, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	w := &Writer{
		ws:     ws,
		path:   path,
		start:  start,
		format: format,
	}

	hdr := w.header()
	if err := w.write(hdr[:]); err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: fmt.Errorf("failed to write header: %w", err)}
	}
	return w, nil
}

// Format returns the format the Writer was created with.
func (w *Writer) Format() Format {
	return w.format
}

// DataSize returns the number of sample bytes written so far.
func (w *Writer) DataSize() uint32 {
	return w.dataSize
}

// Write appends samples, each encoded as a 2-byte little-endian signed
// integer, after any previously written samples. To write the first n
// samples of a buffer pass buf[:n].
func (w *Writer) Write(samples []int16) error {
	if w.ws == nil {
		return ErrClosed
	}
	if err := w.reserve(len(samples)); err != nil {
		return err
	}

	for len(samples) > 0 {
		n := min(len(samples), encodeChunk)
		b := w.scratch(n)
		for i, s := range samples[:n] {
			binary.LittleEndian.PutUint16(b[i*bytesPerSample:], uint16(s))
		}
		if err := w.write(b); err != nil {
			return &IOError{Op: "write", Path: w.path, Err: err}
		}
		w.dataSize += uint32(len(b))
		samples = samples[n:]
	}
	return nil
}

// WriteIntBuffer appends the samples of a go-audio buffer. The buffer must be
// mono and, when it carries a format, match the Writer's sample rate. Values
// outside the int16 range wrap.
func (w *Writer) WriteIntBuffer(buf *audio.IntBuffer) error {
	if w.ws == nil {
		return ErrClosed
	}
	if buf == nil {
		return nil
	}
	if f := buf.Format; f != nil {
		if f.NumChannels > NumChannels {
			return fmt.Errorf("%w: %d channels, only mono is supported", ErrInvalidFormat, f.NumChannels)
		}
		if f.SampleRate != 0 && uint32(f.SampleRate) != w.format.SampleRate {
			return fmt.Errorf("%w: buffer rate %dHz, writer rate %dHz", ErrInvalidFormat, f.SampleRate, w.format.SampleRate)
		}
	}

	samples := make([]int16, min(len(buf.Data), encodeChunk))
	for data := buf.Data; len(data) > 0; {
		n := min(len(data), len(samples))
		for i, v := range data[:n] {
			samples[i] = int16(v)
		}
		if err := w.Write(samples[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Close patches the RIFF and data chunk sizes in the header and releases the
// underlying file. The Writer must not be used afterwards; calling Close again
// is a no-op.
//
// If an earlier Write failed, Close still patches the header to describe the
// bytes that were actually counted. The partial output is not removed.
func (w *Writer) Close() error {
	if w.ws == nil {
		return nil
	}

	err := w.patchSizes()
	if c, ok := w.ws.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil {
			err = errors.Join(err, &IOError{Op: "close", Path: w.path, Err: cerr})
		}
	}
	w.ws = nil
	w.buf = nil
	return err
}

func (w *Writer) patchSizes() error {
	var field [4]byte

	// Seek to chunk size position and update
	binary.LittleEndian.PutUint32(field[:], w.dataSize+riffSizeOverhead)
	if err := w.writeAt(field[:], riffSizeOffset); err != nil {
		return &IOError{Op: "close", Path: w.path, Err: fmt.Errorf("failed to patch chunk size: %w", err)}
	}

	// Seek to data size position and update
	binary.LittleEndian.PutUint32(field[:], w.dataSize)
	if err := w.writeAt(field[:], dataSizeOffset); err != nil {
		return &IOError{Op: "close", Path: w.path, Err: fmt.Errorf("failed to patch data size: %w", err)}
	}

	if _, err := w.ws.Seek(0, io.SeekEnd); err != nil {
		return &IOError{Op: "close", Path: w.path, Err: err}
	}
	return nil
}

// header encodes the canonical 44 byte header with both size fields zeroed.
func (w *Writer) header() [HeaderSize]byte {
	var h [HeaderSize]byte
	le := binary.LittleEndian

	copy(h[0:4], "RIFF")
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	le.PutUint32(h[16:20], fmtChunkSize)
	le.PutUint16(h[20:22], formatPCM)
	le.PutUint16(h[22:24], NumChannels)
	le.PutUint32(h[24:28], w.format.SampleRate)
	le.PutUint32(h[28:32], w.format.ByteRate())
	le.PutUint16(h[32:34], w.format.BlockAlign())
	le.PutUint16(h[34:36], BitsPerSample)

	copy(h[36:40], "data")
	return h
}

// reserve checks that n more samples still fit the 32-bit size fields.
func (w *Writer) reserve(n int) error {
	if uint64(w.dataSize)+uint64(n)*bytesPerSample > MaxDataSize {
		return fmt.Errorf("%w: %d bytes written, %d more requested", ErrDataTooLarge, w.dataSize, n*bytesPerSample)
	}
	return nil
}

func (w *Writer) scratch(samples int) []byte {
	n := samples * bytesPerSample
	if cap(w.buf) < n {
		w.buf = make([]byte, n)
	}
	return w.buf[:n]
}

func (w *Writer) write(b []byte) error {
	n, err := w.ws.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}

func (w *Writer) writeAt(b []byte, offset int64) error {
	if _, err := w.ws.Seek(w.start+offset, io.SeekStart); err != nil {
		return err
	}
	return w.write(b)
}
