package encoder

import (
	"bytes"
	"encoding/binary"
)

// WAVEncoder buffers PCM and prepends a canonical 44-byte RIFF header on Close.
type WAVEncoder struct {
	pcm         bytes.Buffer
	out         []byte
	totalFrames uint64
}

func NewWAV() *WAVEncoder { return &WAVEncoder{} }

func (e *WAVEncoder) EncodeBlock(block []int16) error {
	var b [2]byte
	for _, s := range block {
		binary.LittleEndian.PutUint16(b[:], uint16(s))
		e.pcm.Write(b[:])
	}
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WAVEncoder) Close() error {
	const headerSize = 44
	dataSize := e.pcm.Len()
	buf := make([]byte, headerSize, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], Channels)
	binary.LittleEndian.PutUint32(buf[24:28], SampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], SampleRate*Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(buf[32:34], Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(buf[34:36], BitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	e.out = append(buf, e.pcm.Bytes()...)
	return nil
}

func (e *WAVEncoder) Bytes() []byte       { return e.out }
func (e *WAVEncoder) TotalFrames() uint64 { return e.totalFrames }
func (e *WAVEncoder) MediaType() string   { return "audio/wav" }
func (e *WAVEncoder) Extension() string   { return "wav" }
