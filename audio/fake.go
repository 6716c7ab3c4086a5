package audio

import (
	"errors"
	"os"
	"sync"
)

const fakeBytesPerFrame = 2 // 16-bit mono

// ErrFakeDenied simulates a platform refusing microphone access.
var ErrFakeDenied = errors.New("fake: access denied")

// FakeContext hands out captures that replay a fixed PCM buffer on demand.
// Tests push audio with FakeCapture.Feed instead of relying on timers.
type FakeContext struct {
	pcm     []byte
	devices []DeviceInfo
	denied  bool

	mu       sync.Mutex
	captures []*FakeCapture
}

func NewFakeContext(pcm []byte) *FakeContext {
	return &FakeContext{
		pcm:     pcm,
		devices: []DeviceInfo{{ID: "fake-0", Name: "fake"}},
	}
}

// NewFakeContextFromWAV loads a 16-bit mono WAV file, stripping its header.
func NewFakeContextFromWAV(wavPath string) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return NewFakeContext(data), nil
}

// Deny makes every subsequent NewCapture fail.
func (f *FakeContext) Deny() { f.denied = true }

// NoDevices makes Devices report an empty list.
func (f *FakeContext) NoDevices() { f.devices = nil }

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return f.devices, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(device *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	if f.denied {
		return nil, ErrFakeDenied
	}
	c := &FakeCapture{pcm: f.pcm, info: device}
	f.mu.Lock()
	f.captures = append(f.captures, c)
	f.mu.Unlock()
	return c, nil
}

// Captures returns every capture handed out so far.
func (f *FakeContext) Captures() []*FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeCapture(nil), f.captures...)
}

type FakeCapture struct {
	pcm  []byte
	info *DeviceInfo

	mu      sync.Mutex
	cb      DataCallback
	started bool
	closed  bool
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string {
	if f.info != nil {
		return f.info.Name
	}
	return "fake"
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	f.started = false
	f.mu.Unlock()
}

func (f *FakeCapture) Close() {
	f.mu.Lock()
	f.started = false
	f.closed = true
	f.mu.Unlock()
}

// Closed reports whether the device was released.
func (f *FakeCapture) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Feed delivers the whole buffer in chunks of chunkFrames frames, as the
// platform callback would. Nothing is delivered once stopped.
func (f *FakeCapture) Feed(chunkFrames int) {
	chunkBytes := chunkFrames * fakeBytesPerFrame
	for pos := 0; pos < len(f.pcm); {
		end := min(pos+chunkBytes, len(f.pcm))
		f.mu.Lock()
		cb, running := f.cb, f.started
		f.mu.Unlock()
		if cb == nil || !running {
			return
		}
		chunk := make([]byte, end-pos)
		copy(chunk, f.pcm[pos:end])
		cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
		pos = end
	}
}
