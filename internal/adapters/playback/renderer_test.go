package playback

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

type fakeTrack struct {
	id      string
	kind    webrtc.RTPCodecType
	mime    string
	packets chan *rtp.Packet
	closed  chan struct{}
	once    sync.Once
}

func newFakeTrack(kind webrtc.RTPCodecType, mime string) *fakeTrack {
	return &fakeTrack{
		id:      "TR_remote",
		kind:    kind,
		mime:    mime,
		packets: make(chan *rtp.Packet, 16),
		closed:  make(chan struct{}),
	}
}

func (t *fakeTrack) ID() string                { return t.id }
func (t *fakeTrack) Kind() webrtc.RTPCodecType { return t.kind }
func (t *fakeTrack) Codec() webrtc.RTPCodecParameters {
	return webrtc.RTPCodecParameters{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: t.mime}}
}

func (t *fakeTrack) ReadRTP() (*rtp.Packet, interceptor.Attributes, error) {
	select {
	case pkt := <-t.packets:
		return pkt, nil, nil
	case <-t.closed:
		return nil, nil, io.EOF
	case <-time.After(20 * time.Millisecond):
		return nil, nil, timeoutErr{}
	}
}

func (t *fakeTrack) SetReadDeadline(time.Time) error { return nil }

func (t *fakeTrack) end() { t.once.Do(func() { close(t.closed) }) }

type fakeDecoder struct{}

// Decode emits one sample per payload byte, equal to the byte value.
func (fakeDecoder) Decode(data []byte, pcm []int16) (int, error) {
	if data[0] == 0xff {
		return 0, errors.New("corrupt")
	}
	for i, b := range data {
		pcm[i] = int16(b)
	}
	return len(data), nil
}

type fakeSink struct {
	mu     sync.Mutex
	frames [][]int16
	closed bool
}

func (s *fakeSink) Write(pcm []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	s.frames = append(s.frames, append([]int16(nil), pcm...))
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) written() [][]int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]int16(nil), s.frames...)
}

type fakeSinks struct {
	mu    sync.Mutex
	sinks []*fakeSink
	err   error
}

func (f *fakeSinks) NewSink(int, int) (Sink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSink{}
	f.sinks = append(f.sinks, s)
	return s, nil
}

func newTestRenderer(sinks SinkFactory) *Renderer {
	r := NewRenderer(Config{SampleRate: 48000, Channels: 1, ReadTimeout: 10 * time.Millisecond}, sinks)
	r.newDecoder = func(int, int) (decoder, error) { return fakeDecoder{}, nil }
	return r
}

func TestAttachPlaysDecodedAudio(t *testing.T) {
	sinks := &fakeSinks{}
	r := newTestRenderer(sinks)
	track := newFakeTrack(webrtc.RTPCodecTypeAudio, webrtc.MimeTypeOpus)

	h, err := r.Attach(track, "agent")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Active())

	track.packets <- &rtp.Packet{Payload: []byte{1, 2, 3}}
	track.packets <- &rtp.Packet{Payload: []byte{0xff}}
	track.packets <- &rtp.Packet{Payload: []byte{4}}

	sink := sinks.sinks[0]
	assert.Eventually(t, func() bool { return len(sink.written()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, [][]int16{{1, 2, 3}, {4}}, sink.written())

	h.Release()
	h.Release()
	assert.Equal(t, 0, r.Active())
	assert.True(t, sink.closed)
}

func TestAttachRejects(t *testing.T) {
	r := newTestRenderer(&fakeSinks{})

	_, err := r.Attach(newFakeTrack(webrtc.RTPCodecTypeVideo, webrtc.MimeTypeVP8), "agent")
	assert.ErrorIs(t, err, ErrNotAudio)

	_, err = r.Attach(newFakeTrack(webrtc.RTPCodecTypeAudio, webrtc.MimeTypePCMU), "agent")
	assert.ErrorIs(t, err, ErrUnsupportedCodec)

	r = newTestRenderer(&fakeSinks{err: errors.New("no device")})
	_, err = r.Attach(newFakeTrack(webrtc.RTPCodecTypeAudio, webrtc.MimeTypeOpus), "agent")
	assert.Error(t, err)
	assert.Equal(t, 0, r.Active())
}

func TestTrackEndStopsLoop(t *testing.T) {
	r := newTestRenderer(&fakeSinks{})
	track := newFakeTrack(webrtc.RTPCodecTypeAudio, webrtc.MimeTypeOpus)

	h, err := r.Attach(track, "agent")
	require.NoError(t, err)

	track.end()
	b := h.(*binding)
	select {
	case <-b.done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on EOF")
	}
	assert.Equal(t, bindingDelete, b.getState())

	// the handle still owns cleanup
	assert.Equal(t, 1, r.Active())
	h.Release()
	assert.Equal(t, 0, r.Active())
}

func TestMutedBindingWritesSilence(t *testing.T) {
	sinks := &fakeSinks{}
	r := newTestRenderer(sinks)
	track := newFakeTrack(webrtc.RTPCodecTypeAudio, webrtc.MimeTypeOpus)

	h, err := r.Attach(track, "agent")
	require.NoError(t, err)
	defer h.Release()

	r.SetMuted(true)
	track.packets <- &rtp.Packet{Payload: []byte{9, 9}}

	sink := sinks.sinks[0]
	assert.Eventually(t, func() bool { return len(sink.written()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int16{0, 0}, sink.written()[0])
}

func TestMuteAppliesToLaterTracks(t *testing.T) {
	sinks := &fakeSinks{}
	r := newTestRenderer(sinks)
	r.SetMuted(true)
	assert.True(t, r.Muted())

	track := newFakeTrack(webrtc.RTPCodecTypeAudio, webrtc.MimeTypeOpus)
	h, err := r.Attach(track, "agent")
	require.NoError(t, err)
	defer h.Release()

	track.packets <- &rtp.Packet{Payload: []byte{9, 9}}
	sink := sinks.sinks[0]
	assert.Eventually(t, func() bool { return len(sink.written()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int16{0, 0}, sink.written()[0])

	r.SetMuted(false)
	assert.False(t, r.Muted())
	track.packets <- &rtp.Packet{Payload: []byte{9, 9}}
	assert.Eventually(t, func() bool { return len(sink.written()) == 2 }, time.Second, 5*time.Millisecond)
	assert.NotEqual(t, []int16{0, 0}, sink.written()[1])
}

func TestCloseReleasesAll(t *testing.T) {
	r := newTestRenderer(&fakeSinks{})
	for i := 0; i < 3; i++ {
		_, err := r.Attach(newFakeTrack(webrtc.RTPCodecTypeAudio, webrtc.MimeTypeOpus), "agent")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, r.Active())

	r.Close()
	assert.Equal(t, 0, r.Active())

	_, err := r.Attach(newFakeTrack(webrtc.RTPCodecTypeAudio, webrtc.MimeTypeOpus), "agent")
	assert.ErrorIs(t, err, ErrClosed)
}
