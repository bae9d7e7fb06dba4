// Package audio turns an encoded MP3 buffer into the wire-sized frames the
// pump broadcasts, and owns loading that buffer from disk.
package audio

import (
	"bytes"
	"time"
)

// SyncMarkerMP3 is the frame-header sync pattern for the MPEG-1 Layer III,
// no-CRC profile the relay streams (0xFF 0xFB).
var SyncMarkerMP3 = []byte{0xFF, 0xFB}

// SyncOffset returns the offset of the first occurrence of marker in buf,
// or 0 when the marker is absent so framing starts at the buffer head.
func SyncOffset(buf, marker []byte) int {
	if i := bytes.Index(buf, marker); i >= 0 {
		return i
	}
	return 0
}

// Slice carves buf[SyncOffset:] into consecutive frames of exactly frameSize
// bytes, plus one final shorter tail frame for any remainder. The emitted
// lengths always sum to len(buf) minus the sync offset.
//
// Known limitation: real MP3 frames are variable length; slicing by a fixed
// byte count (tuned to one bitrate/sample-rate combination) approximates
// frame boundaries and is not a demuxer guarantee. Players that resync on
// the frame header tolerate this; do not rely on each slice being
// independently decodable.
func Slice(buf, marker []byte, frameSize int) [][]byte {
	if frameSize <= 0 || len(buf) == 0 {
		return nil
	}
	start := SyncOffset(buf, marker)
	body := buf[start:]

	frames := make([][]byte, 0, len(body)/frameSize+1)
	for len(body) >= frameSize {
		frames = append(frames, body[:frameSize])
		body = body[frameSize:]
	}
	if len(body) > 0 {
		frames = append(frames, body)
	}
	return frames
}

// FrameDuration is the nominal playback time of one codec frame:
// samples-per-frame over the source sample rate (MP3: 1152 samples, so
// 1152/8000 Hz ≈ 144ms).
func FrameDuration(frameSamples, sampleRate int) time.Duration {
	if frameSamples <= 0 || sampleRate <= 0 {
		return 0
	}
	return time.Duration(frameSamples) * time.Second / time.Duration(sampleRate)
}
