package capture

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Analyser mirrors the transfer function of a browser AnalyserNode with
// fftSize 256: Blackman window, magnitude smoothing over time, then a
// decibel range mapped onto [0,1].
const (
	FFTSize     = 256
	VisualBins  = 20
	minDecibels = -100.0
	maxDecibels = -30.0
	smoothing   = 0.8
)

type Analyser struct {
	mu       sync.Mutex
	fft      *fourier.FFT
	window   []float64
	ring     []float64
	pos      int
	seq      []float64
	coeffs   []complex128
	smoothed []float64
}

func NewAnalyser() *Analyser {
	window := make([]float64, FFTSize)
	for i := range window {
		x := 2 * math.Pi * float64(i) / FFTSize
		window[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}
	return &Analyser{
		fft:      fourier.NewFFT(FFTSize),
		window:   window,
		ring:     make([]float64, FFTSize),
		seq:      make([]float64, FFTSize),
		smoothed: make([]float64, FFTSize/2),
	}
}

// Write appends little-endian 16-bit PCM samples to the analysis window.
func (a *Analyser) Write(pcm []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8)
		a.ring[a.pos] = float64(s) / 32768.0
		a.pos = (a.pos + 1) % FFTSize
	}
}

// Levels returns the first n frequency bins, each in [0,1].
func (a *Analyser) Levels(n int) []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	n = min(n, len(a.smoothed))
	for i := range a.seq {
		a.seq[i] = a.ring[(a.pos+i)%FFTSize] * a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.seq)

	out := make([]float64, n)
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[k]) / FFTSize
		a.smoothed[k] = smoothing*a.smoothed[k] + (1-smoothing)*mag
		if k < n {
			out[k] = scaleDecibels(a.smoothed[k])
		}
	}
	return out
}

func scaleDecibels(mag float64) float64 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	b := math.Floor(255 * (db - minDecibels) / (maxDecibels - minDecibels))
	b = max(0, min(255, b))
	return b / 255
}
