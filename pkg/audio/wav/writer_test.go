package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/matryer/is"
	"github.com/orcaman/writerseeker"
)

func writeFile(t *testing.T, path string, format Format, chunks ...[]int16) {
	t.Helper()
	is := is.New(t)

	w, err := Create(path, format)
	is.NoErr(err)
	for _, c := range chunks {
		is.NoErr(w.Write(c))
	}
	is.NoErr(w.Close())
}

func rampSamples(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(i*37 - 1000)
	}
	return samples
}

func TestWriter_HeaderLayout(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "layout.wav")
	writeFile(t, path, Format{SampleRate: 22050}, []int16{1, -1, 0x1234})

	raw, err := os.ReadFile(path)
	is.NoErr(err)
	is.Equal(len(raw), HeaderSize+6)

	le := binary.LittleEndian
	is.Equal(string(raw[0:4]), "RIFF")
	is.Equal(le.Uint32(raw[4:8]), uint32(6+36)) // chunk size
	is.Equal(string(raw[8:12]), "WAVE")
	is.Equal(string(raw[12:16]), "fmt ")
	is.Equal(le.Uint32(raw[16:20]), uint32(16))    // fmt chunk size
	is.Equal(le.Uint16(raw[20:22]), uint16(1))     // PCM
	is.Equal(le.Uint16(raw[22:24]), uint16(1))     // mono
	is.Equal(le.Uint32(raw[24:28]), uint32(22050)) // sample rate
	is.Equal(le.Uint32(raw[28:32]), uint32(44100)) // byte rate
	is.Equal(le.Uint16(raw[32:34]), uint16(2))     // block align
	is.Equal(le.Uint16(raw[34:36]), uint16(16))    // bits per sample
	is.Equal(string(raw[36:40]), "data")
	is.Equal(le.Uint32(raw[40:44]), uint32(6)) // data size

	is.Equal(raw[44:], []byte{0x01, 0x00, 0xFF, 0xFF, 0x34, 0x12}) // little-endian samples
}

func TestWriter_ProvisionalHeader(t *testing.T) {
	is := is.New(t)

	ws := &writerseeker.WriterSeeker{}
	w, err := NewWriter(ws, DefaultFormat())
	is.NoErr(err)
	is.NoErr(w.Write(rampSamples(10)))

	// Before Close both size fields are still placeholders
	raw := ws.BytesReader()
	hdr := make([]byte, HeaderSize)
	_, err = io.ReadFull(raw, hdr)
	is.NoErr(err)
	is.Equal(binary.LittleEndian.Uint32(hdr[4:8]), uint32(0))
	is.Equal(binary.LittleEndian.Uint32(hdr[40:44]), uint32(0))
	is.Equal(w.DataSize(), uint32(20))

	is.NoErr(w.Close())

	h, err := ReadHeader(ws.BytesReader())
	is.NoErr(err)
	is.Equal(h.DataSize, uint32(20))
	is.Equal(h.ChunkSize, uint32(56))
}

func TestWriter_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		samples int
	}{
		{name: "empty", samples: 0},
		{name: "single sample", samples: 1},
		{name: "one chunk", samples: encodeChunk},
		{name: "several chunks", samples: 3*encodeChunk + 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)

			path := filepath.Join(t.TempDir(), "roundtrip.wav")
			want := rampSamples(tt.samples)
			writeFile(t, path, DefaultFormat(), want)

			info, err := os.Stat(path)
			is.NoErr(err)
			is.Equal(info.Size(), int64(HeaderSize+2*tt.samples))

			r, err := Open(path)
			is.NoErr(err)
			defer r.Close()

			h := r.Header()
			is.Equal(h.DataSize, uint32(2*tt.samples))     // data chunk size
			is.Equal(h.ChunkSize, uint32(2*tt.samples+36)) // RIFF chunk size
			is.Equal(h.Samples(), tt.samples)

			got, err := r.ReadSamples()
			is.NoErr(err)
			is.Equal(got, want)
		})
	}
}

func TestWriter_MultipleWritesConcatenate(t *testing.T) {
	is := is.New(t)

	a := []int16{1, 2, 3}
	b := []int16{-4, -5}

	path := filepath.Join(t.TempDir(), "concat.wav")
	writeFile(t, path, DefaultFormat(), a, b)

	r, err := Open(path)
	is.NoErr(err)
	defer r.Close()

	is.Equal(r.Header().DataSize, uint32(10))
	got, err := r.ReadSamples()
	is.NoErr(err)
	is.Equal(got, []int16{1, 2, 3, -4, -5}) // a then b
}

func TestWriter_WriteCountViaSlice(t *testing.T) {
	is := is.New(t)

	buf := rampSamples(100)
	path := filepath.Join(t.TempDir(), "count.wav")
	writeFile(t, path, DefaultFormat(), buf[:40])

	r, err := Open(path)
	is.NoErr(err)
	defer r.Close()

	got, err := r.ReadSamples()
	is.NoErr(err)
	is.Equal(got, buf[:40])
}

func TestCreate_TruncatesExistingFile(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "again.wav")
	writeFile(t, path, DefaultFormat(), rampSamples(1000))
	writeFile(t, path, DefaultFormat(), rampSamples(10))

	info, err := os.Stat(path)
	is.NoErr(err)
	is.Equal(info.Size(), int64(HeaderSize+20)) // second file holds only its own data

	r, err := Open(path)
	is.NoErr(err)
	defer r.Close()
	is.Equal(r.Header().DataSize, uint32(20))
}

func TestCreate_Failure(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "missing", "dir", "out.wav")
	w, err := Create(path, DefaultFormat())
	is.True(w == nil)
	is.True(IsIOError(err))                 // open failure is an IOError
	is.True(errors.Is(err, fs.ErrNotExist)) // and keeps the cause

	var ioErr *IOError
	is.True(errors.As(err, &ioErr))
	is.Equal(ioErr.Op, "open")
	is.Equal(ioErr.Path, path)

	_, statErr := os.Stat(path)
	is.True(errors.Is(statErr, fs.ErrNotExist)) // no file created
}

func TestCreate_InvalidFormat(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "zero.wav")
	_, err := Create(path, Format{})
	is.True(errors.Is(err, ErrInvalidFormat))
	is.True(!IsIOError(err))

	_, statErr := os.Stat(path)
	is.True(errors.Is(statErr, fs.ErrNotExist))
}

func TestWriter_UseAfterClose(t *testing.T) {
	is := is.New(t)

	w, err := NewWriter(&writerseeker.WriterSeeker{}, DefaultFormat())
	is.NoErr(err)
	is.NoErr(w.Close())

	is.True(errors.Is(w.Write([]int16{1}), ErrClosed))
	is.True(errors.Is(w.WriteIntBuffer(&audio.IntBuffer{Data: []int{1}}), ErrClosed))
	is.NoErr(w.Close()) // second Close is a no-op
}

func TestWriter_DataTooLarge(t *testing.T) {
	is := is.New(t)

	w, err := NewWriter(&writerseeker.WriterSeeker{}, DefaultFormat())
	is.NoErr(err)
	w.dataSize = 0xFFFFFFFF - 36 - 2

	is.NoErr(w.reserve(1))
	is.True(errors.Is(w.reserve(2), ErrDataTooLarge))
}

// failingSink accepts up to limit bytes and then fails.
type failingSink struct {
	bytes.Buffer
	limit   int
	err     error
	closed  bool
	seekErr error
}

func (f *failingSink) Write(p []byte) (int, error) {
	if f.Len()+len(p) > f.limit {
		n := f.limit - f.Len()
		f.Buffer.Write(p[:n])
		return n, f.err
	}
	return f.Buffer.Write(p)
}

func (f *failingSink) Seek(offset int64, whence int) (int64, error) {
	if f.seekErr != nil {
		return 0, f.seekErr
	}
	return offset, nil
}

func (f *failingSink) Close() error {
	f.closed = true
	return nil
}

func TestWriter_IOErrors(t *testing.T) {
	diskFull := errors.New("no space left on device")

	t.Run("header", func(t *testing.T) {
		is := is.New(t)

		_, err := NewWriter(&failingSink{limit: 10, err: diskFull}, DefaultFormat())
		is.True(IsIOError(err))
		is.True(errors.Is(err, diskFull))
	})

	t.Run("short write", func(t *testing.T) {
		is := is.New(t)

		sink := &failingSink{limit: HeaderSize + 3}
		w, err := NewWriter(sink, DefaultFormat())
		is.NoErr(err)

		err = w.Write([]int16{1, 2})
		is.True(IsIOError(err))
		is.True(errors.Is(err, io.ErrShortWrite))
		is.Equal(w.DataSize(), uint32(0)) // failed chunk is not counted
	})

	t.Run("close", func(t *testing.T) {
		is := is.New(t)

		sink := &failingSink{limit: 1 << 20}
		w, err := NewWriter(sink, DefaultFormat())
		is.NoErr(err)

		sink.seekErr = errors.New("bad file descriptor")
		err = w.Close()
		is.True(IsIOError(err))
		is.True(errors.Is(err, sink.seekErr))
		is.True(sink.closed) // sink released even when patching fails
	})
}

func TestWriter_WriteIntBuffer(t *testing.T) {
	is := is.New(t)

	ws := &writerseeker.WriterSeeker{}
	w, err := NewWriter(ws, DefaultFormat())
	is.NoErr(err)

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: DefaultSampleRate},
		Data:   []int{0, 100, -100, 32767, -32768, 32768},
	}
	is.NoErr(w.WriteIntBuffer(buf))
	is.NoErr(w.Close())

	r := ws.BytesReader()
	h, err := ReadHeader(r)
	is.NoErr(err)
	is.Equal(h.DataSize, uint32(12))

	got := make([]int16, 6)
	is.NoErr(binary.Read(r, binary.LittleEndian, got))
	is.Equal(got, []int16{0, 100, -100, 32767, -32768, -32768}) // 32768 wraps
}

func TestWriter_WriteIntBufferRejectsFormat(t *testing.T) {
	tests := []struct {
		name   string
		format *audio.Format
	}{
		{name: "stereo", format: &audio.Format{NumChannels: 2, SampleRate: DefaultSampleRate}},
		{name: "rate mismatch", format: &audio.Format{NumChannels: 1, SampleRate: 8000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)

			w, err := NewWriter(&writerseeker.WriterSeeker{}, DefaultFormat())
			is.NoErr(err)
			defer w.Close()

			err = w.WriteIntBuffer(&audio.IntBuffer{Format: tt.format, Data: []int{1}})
			is.True(errors.Is(err, ErrInvalidFormat))
			is.Equal(w.DataSize(), uint32(0))
		})
	}
}

// A third-party decoder must accept the output as a valid PCM WAV file.
func TestWriter_DecodesWithGoAudio(t *testing.T) {
	is := is.New(t)

	want := rampSamples(2 * encodeChunk)
	ws := &writerseeker.WriterSeeker{}
	w, err := NewWriter(ws, Format{SampleRate: 16000})
	is.NoErr(err)
	is.NoErr(w.Write(want[:encodeChunk]))
	is.NoErr(w.Write(want[encodeChunk:]))
	is.NoErr(w.Close())

	is.True(gowav.NewDecoder(ws.BytesReader()).IsValidFile())

	d := gowav.NewDecoder(ws.BytesReader())
	buf, err := d.FullPCMBuffer()
	is.NoErr(err)
	is.Equal(d.SampleRate, uint32(16000))
	is.Equal(d.BitDepth, uint16(16))
	is.Equal(d.NumChans, uint16(1))
	is.Equal(d.WavAudioFormat, uint16(1))
	is.Equal(len(buf.Data), len(want))
	for i, v := range buf.Data {
		if int16(v) != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, v, want[i])
		}
	}
}

func TestNewWriter_OffsetSink(t *testing.T) {
	is := is.New(t)

	prefix := []byte("container prefix")
	ws := &writerseeker.WriterSeeker{}
	_, err := ws.Write(prefix)
	is.NoErr(err)

	w, err := NewWriter(ws, DefaultFormat())
	is.NoErr(err)
	is.NoErr(w.Write([]int16{7, -7, 9}))
	is.NoErr(w.Close())

	raw, err := io.ReadAll(ws.BytesReader())
	is.NoErr(err)
	is.Equal(len(raw), len(prefix)+HeaderSize+6)
	is.Equal(raw[:len(prefix)], prefix) // bytes before the header are untouched

	r := bytes.NewReader(raw[len(prefix):])
	h, err := ReadHeader(r)
	is.NoErr(err)
	is.Equal(h.ChunkSize, uint32(6+36)) // patched relative to the header start
	is.Equal(h.DataSize, uint32(6))

	got := make([]int16, 3)
	is.NoErr(binary.Read(r, binary.LittleEndian, got))
	is.Equal(got, []int16{7, -7, 9})
}
