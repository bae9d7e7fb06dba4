package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Transcode profile matching the stream the players expect: 8 kbit/s CBR,
// 8 kHz, mono. Frame size 549 in the default config was measured against
// exactly this profile.
const (
	encodeBitrate    = "8k"
	encodeSampleRate = "8000"
	encodeChannels   = "1"
)

// TranscodeMP3 shells out to ffmpeg to convert the file at path into the
// relay's MP3 profile and returns the encoded bytes. ffmpeg must be on PATH;
// the relay performs no encoding itself.
func TranscodeMP3(ctx context.Context, path string) ([]byte, error) {
	ffmpeg := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-vn",
		"-ac", encodeChannels,
		"-ar", encodeSampleRate,
		"-b:a", encodeBitrate,
		"-f", "mp3",
		"pipe:1",
	)

	var out, stderr bytes.Buffer
	ffmpeg.Stdout = &out
	ffmpeg.Stderr = &stderr

	if err := ffmpeg.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, stderr.String())
	}
	return out.Bytes(), nil
}
