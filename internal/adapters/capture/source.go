package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"sync"
	"time"

	"github.com/dkeye/VoiceAgent/internal/core"
)

// Format describes the PCM a Source produces.
type Format struct {
	SampleRate int
	Channels   int
	FrameSize  time.Duration
}

func DefaultFormat() Format {
	return Format{SampleRate: 48000, Channels: 1, FrameSize: 20 * time.Millisecond}
}

// SamplesPerFrame is the interleaved sample count of one frame.
func (f Format) SamplesPerFrame() int {
	return int(int64(f.SampleRate)*int64(f.FrameSize)/int64(time.Second)) * f.Channels
}

func (f Format) validate() error {
	switch f.SampleRate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return fmt.Errorf("unsupported sample rate %d", f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("unsupported channel count %d", f.Channels)
	}
	switch f.FrameSize {
	case 10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond, 60 * time.Millisecond:
	default:
		return fmt.Errorf("unsupported frame size %s", f.FrameSize)
	}
	return nil
}

// Source yields interleaved 16-bit PCM in the opened Format.
type Source interface {
	Read(pcm []int16) (int, error)
	Close() error
}

// Driver opens an input device. Open errors are classified into CaptureError kinds.
type Driver interface {
	Name() string
	Open(format Format) (Source, error)
	// EchoCancellation reports whether the driver has a playback reference to cancel against.
	EchoCancellation() bool
}

// NewDriver picks a driver by config name.
func NewDriver(name, source string, frequency float64) (Driver, error) {
	switch name {
	case "tone", "":
		return ToneDriver{Frequency: frequency}, nil
	case "pcm":
		return PCMDriver{Path: source}, nil
	default:
		return nil, &core.CaptureError{Kind: core.CaptureNoCompatibleDevice, Err: fmt.Errorf("unknown capture driver %q", name)}
	}
}

// ToneDriver generates a sine wave; useful for headless runs.
type ToneDriver struct {
	Frequency float64
}

func (ToneDriver) Name() string           { return "tone" }
func (ToneDriver) EchoCancellation() bool { return false }

func (d ToneDriver) Open(format Format) (Source, error) {
	freq := d.Frequency
	if freq <= 0 {
		freq = 440.0
	}
	return &toneSource{frequency: freq, format: format}, nil
}

type toneSource struct {
	mu          sync.Mutex
	sampleIndex uint64
	frequency   float64
	format      Format
	closed      bool
}

func (s *toneSource) Read(samples []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.EOF
	}

	ch := s.format.Channels
	frames := len(samples) / ch
	for i := 0; i < frames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.format.SampleRate)
		v := int16(math.Sin(2*math.Pi*s.frequency*t) * 32767.0 * 0.3)
		for c := 0; c < ch; c++ {
			samples[i*ch+c] = v
		}
	}
	s.sampleIndex += uint64(frames)
	return frames * ch, nil
}

func (s *toneSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// PCMDriver reads raw signed 16-bit little-endian PCM from a file, a fifo,
// or stdin when Path is "-".
type PCMDriver struct {
	Path string
}

func (PCMDriver) Name() string           { return "pcm" }
func (PCMDriver) EchoCancellation() bool { return false }

func (d PCMDriver) Open(format Format) (Source, error) {
	if d.Path == "" {
		return nil, &core.CaptureError{Kind: core.CaptureNoCompatibleDevice, Err: errors.New("no pcm source configured")}
	}
	if d.Path == "-" {
		r := newDetachedReader(stdin)
		return &pcmSource{r: r, closer: r}, nil
	}
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, classifyOpenError(err)
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		_ = f.Close()
		return nil, &core.CaptureError{Kind: core.CaptureNoCompatibleDevice, Err: fmt.Errorf("%s is a directory", d.Path)}
	}
	return &pcmSource{r: f, closer: f}, nil
}

// stdin is swapped in tests.
var stdin io.Reader = os.Stdin

// detachedReader reads from r on its own goroutine so Close can return
// control to a caller blocked in Read. The goroutine itself stays parked in
// r.Read until r yields, since stdin cannot be closed from here.
type detachedReader struct {
	results   chan readResult
	closed    chan struct{}
	closeOnce sync.Once

	pending []byte
	err     error
}

type readResult struct {
	data []byte
	err  error
}

func newDetachedReader(r io.Reader) *detachedReader {
	d := &detachedReader{
		results: make(chan readResult),
		closed:  make(chan struct{}),
	}
	go d.fill(r)
	return d
}

func (d *detachedReader) fill(r io.Reader) {
	for {
		buf := make([]byte, 4096)
		n, err := r.Read(buf)
		select {
		case d.results <- readResult{data: buf[:n], err: err}:
		case <-d.closed:
			return
		}
		if err != nil {
			return
		}
	}
}

func (d *detachedReader) Read(p []byte) (int, error) {
	for len(d.pending) == 0 {
		if d.err != nil {
			return 0, d.err
		}
		select {
		case <-d.closed:
			return 0, io.EOF
		case res := <-d.results:
			d.pending, d.err = res.data, res.err
		}
	}
	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *detachedReader) Close() error {
	d.closeOnce.Do(func() { close(d.closed) })
	return nil
}

func classifyOpenError(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return &core.CaptureError{Kind: core.CapturePermissionDenied, Err: err}
	case errors.Is(err, fs.ErrNotExist):
		return &core.CaptureError{Kind: core.CaptureDeviceUnavailable, Err: err}
	default:
		return &core.CaptureError{Kind: core.CaptureDeviceUnavailable, Err: err}
	}
}

type pcmSource struct {
	r      io.Reader
	closer io.Closer
	buf    []byte
}

func (s *pcmSource) Read(samples []int16) (int, error) {
	need := len(samples) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]
	if _, err := io.ReadFull(s.r, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, io.EOF
		}
		return 0, err
	}
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return len(samples), nil
}

func (s *pcmSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
