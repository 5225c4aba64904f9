package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// WAV encode/decode for mono/stereo PCM16. The pipeline only ever moves
// RIFF PCM16 buffers between capture, transcription, and playback, so a
// full container library is unnecessary.

var (
	// ErrNotWAV is returned when a buffer is not a RIFF/WAVE file.
	ErrNotWAV = errors.New("audio: not a WAV file")

	// ErrUnsupportedWAV is returned for WAV files that are not PCM16.
	ErrUnsupportedWAV = errors.New("audio: unsupported WAV format")
)

const wavHeaderSize = 44

// EncodeWAV wraps raw PCM16 bytes in a RIFF/WAVE header.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	buf := make([]byte, wavHeaderSize+len(pcm))

	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))

	copy(buf[wavHeaderSize:], pcm)
	return buf
}

// DecodeWAV extracts PCM16 data and format parameters from a WAV buffer.
func DecodeWAV(wav []byte) (pcm []byte, sampleRate, channels int, err error) {
	if len(wav) < wavHeaderSize || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, 0, 0, ErrNotWAV
	}

	// Walk chunks; fmt and data are not guaranteed to sit at fixed offsets.
	pos := 12
	var haveFmt bool
	for pos+8 <= len(wav) {
		id := string(wav[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(wav) {
			size = len(wav) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, 0, ErrUnsupportedWAV
			}
			format := binary.LittleEndian.Uint16(wav[body : body+2])
			channels = int(binary.LittleEndian.Uint16(wav[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(wav[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(wav[body+14 : body+16])
			if format != 1 || bits != 16 {
				return nil, 0, 0, fmt.Errorf("%w: format=%d bits=%d", ErrUnsupportedWAV, format, bits)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, 0, 0, ErrUnsupportedWAV
			}
			return wav[body : body+size], sampleRate, channels, nil
		}

		// Chunk bodies are word-aligned.
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	return nil, 0, 0, ErrUnsupportedWAV
}

// WAVDuration returns the playback duration of a WAV buffer in seconds,
// or 0 if the buffer cannot be decoded.
func WAVDuration(wav []byte) float64 {
	pcm, rate, channels, err := DecodeWAV(wav)
	if err != nil || rate == 0 || channels == 0 {
		return 0
	}
	return float64(len(pcm)/2) / float64(rate*channels)
}
