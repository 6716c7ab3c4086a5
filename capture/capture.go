package capture

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"itinera/audio"
	"itinera/encoder"
	"itinera/log"
)

var (
	ErrDeviceUnavailable = errors.New("microphone unavailable")
	ErrAlreadyRecording  = errors.New("already recording")
)

// FrameInterval is the default visualization cadence.
const FrameInterval = time.Second / 60

// Observer receives the amplitude vector after every frame. An empty
// vector means recording ended.
type Observer interface {
	Levels(levels []float64)
}

type ObserverFunc func(levels []float64)

func (f ObserverFunc) Levels(levels []float64) { f(levels) }

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func NewTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// Artifact is one finalized recording.
type Artifact struct {
	Data      []byte
	MediaType string
	Filename  string
	Duration  time.Duration
}

type Options struct {
	Device    *audio.DeviceInfo // nil selects the system default
	Format    string            // "flac" or "wav"
	Observer  Observer
	NewTicker func() Ticker
}

// Controller owns the microphone for the lifetime of one session at a time.
type Controller struct {
	ctx  audio.Context
	opts Options

	mu   sync.Mutex
	sess *session
}

func NewController(ctx audio.Context, opts Options) *Controller {
	if opts.Observer == nil {
		opts.Observer = ObserverFunc(func([]float64) {})
	}
	if opts.NewTicker == nil {
		opts.NewTicker = func() Ticker { return NewTimeTicker(FrameInterval) }
	}
	return &Controller{ctx: ctx, opts: opts}
}

type session struct {
	recording atomic.Bool
	capture   audio.CaptureDevice
	analyser  *Analyser
	started   time.Time

	chunksMu sync.Mutex
	chunks   [][]byte
	frames   uint64

	// frameMu orders the final empty publish after any in-flight frame.
	frameMu sync.Mutex
	levels  []float64

	done        chan struct{}
	loopDone    chan struct{}
	releaseOnce sync.Once
}

func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		return ErrAlreadyRecording
	}

	devices, err := c.ctx.Devices()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if len(devices) == 0 {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, audio.ErrNoDevices)
	}

	dev, err := c.ctx.NewCapture(c.opts.Device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	s := &session{
		capture:  dev,
		analyser: NewAnalyser(),
		started:  time.Now(),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	s.recording.Store(true)
	dev.SetCallback(s.onData)
	if err := dev.Start(); err != nil {
		dev.ClearCallback()
		dev.Close()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	c.sess = s
	log.Info("recording_start: " + dev.DeviceName())
	go c.visualize(s)
	return nil
}

func (s *session) onData(data []byte, frameCount uint32) {
	if !s.recording.Load() || len(data) == 0 {
		return
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)

	s.chunksMu.Lock()
	s.chunks = append(s.chunks, chunk)
	s.frames += uint64(frameCount)
	s.chunksMu.Unlock()

	s.analyser.Write(chunk)
}

func (c *Controller) visualize(s *session) {
	defer close(s.loopDone)
	t := c.opts.NewTicker()
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-t.C():
			if !s.tick(c.opts.Observer) {
				return
			}
		}
	}
}

// Tick samples the current amplitude vector and publishes it. It reports
// false once the session is no longer recording.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return false
	}
	return s.tick(c.opts.Observer)
}

func (s *session) tick(obs Observer) bool {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	if !s.recording.Load() {
		return false
	}
	s.levels = s.analyser.Levels(VisualBins)
	obs.Levels(append([]float64(nil), s.levels...))
	return true
}

// release is safe to call from any exit path.
func (s *session) release() {
	s.releaseOnce.Do(func() {
		s.frameMu.Lock()
		s.recording.Store(false)
		s.levels = nil
		s.frameMu.Unlock()

		close(s.done)
		s.capture.Stop()
		s.capture.ClearCallback()
		s.capture.Close()
		<-s.loopDone
	})
}

// Recording reports whether a session is active.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil && c.sess.recording.Load()
}

// Levels returns the last published amplitude vector, nil while idle.
func (c *Controller) Levels() []float64 {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	return append([]float64(nil), s.levels...)
}

// Stop ends the session and returns the finalized recording. Stopping an
// idle controller returns (nil, nil).
func (c *Controller) Stop() (*Artifact, error) {
	c.mu.Lock()
	s := c.sess
	c.sess = nil
	c.mu.Unlock()
	if s == nil {
		return nil, nil
	}

	s.release()
	c.opts.Observer.Levels(nil)
	log.Info("recording_stop")

	s.chunksMu.Lock()
	chunks, frames := s.chunks, s.frames
	s.chunks = nil
	s.chunksMu.Unlock()

	return finalize(chunks, frames, c.opts.Format)
}

// Close releases the device and the visualization loop of an active
// session, discarding its audio.
func (c *Controller) Close() {
	c.mu.Lock()
	s := c.sess
	c.sess = nil
	c.mu.Unlock()
	if s == nil {
		return
	}
	s.release()
	c.opts.Observer.Levels(nil)
	log.Info("recording_discarded")
}

func finalize(chunks [][]byte, frames uint64, format string) (*Artifact, error) {
	size := 0
	for _, ch := range chunks {
		size += len(ch)
	}
	pcm := make([]byte, 0, size)
	for _, ch := range chunks {
		pcm = append(pcm, ch...)
	}

	enc, err := encoder.New(format)
	if err != nil {
		return nil, err
	}
	if err := encoder.EncodePCM(enc, pcm); err != nil {
		return nil, fmt.Errorf("encoding recording: %w", err)
	}
	return &Artifact{
		Data:      enc.Bytes(),
		MediaType: enc.MediaType(),
		Filename:  "recording." + enc.Extension(),
		Duration:  time.Duration(frames) * time.Second / encoder.SampleRate,
	}, nil
}
