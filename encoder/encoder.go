package encoder

import "fmt"

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	MediaType() string
	Extension() string
}

// New returns the encoder for a configured artifact format.
func New(format string) (Encoder, error) {
	switch format {
	case "flac", "":
		return NewFlac()
	case "wav":
		return NewWAV(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (use flac or wav)", format)
	}
}

// EncodePCM runs little-endian 16-bit PCM through enc in BlockSize blocks
// and closes it.
func EncodePCM(enc Encoder, pcm []byte) error {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8)
	}
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return err
		}
	}
	return enc.Close()
}
