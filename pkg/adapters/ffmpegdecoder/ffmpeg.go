// Package ffmpegdecoder provides a software decode engine with the same
// parser/decoder/map contract as the NVDEC backend. Access units are
// assembled in-process with mp4ff and each picture is decoded by an
// external ffmpeg process.
package ffmpegdecoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"runtime"
)

var (
	// ErrFFmpegNotFound is returned when ffmpeg cannot be located.
	ErrFFmpegNotFound = errors.New("ffmpegdecoder: ffmpeg not found in PATH")

	// ErrInvalidHandle is returned for handles this engine never issued.
	ErrInvalidHandle = errors.New("ffmpegdecoder: invalid handle")
)

// customFFmpegPath overrides the ffmpeg lookup when set.
var customFFmpegPath string

// SetFFmpegPath sets a custom path to the ffmpeg binary.
func SetFFmpegPath(path string) {
	customFFmpegPath = path
}

// FindFFmpeg searches for ffmpeg.
// Priority: 1) customFFmpegPath (set via SetFFmpegPath), 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg() (string, error) {
	if customFFmpegPath != "" {
		if _, err := os.Stat(customFFmpegPath); err == nil {
			return customFFmpegPath, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, customFFmpegPath)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// PictureDecoder turns one Annex B access unit into an image.
type PictureDecoder func(accessUnit []byte) (image.Image, error)

// ffmpegPicture returns a PictureDecoder that pipes the access unit through
// ffmpeg and reads back a single PNG frame.
func ffmpegPicture(ffmpegPath string) PictureDecoder {
	return func(accessUnit []byte) (image.Image, error) {
		var stdout, stderr bytes.Buffer
		cmd := exec.Command(ffmpegPath,
			"-hide_banner",
			"-loglevel", "error",
			"-f", "h264",
			"-i", "pipe:0",
			"-frames:v", "1",
			"-f", "image2pipe",
			"-vcodec", "png",
			"pipe:1",
		)
		cmd.Stdin = bytes.NewReader(accessUnit)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("ffmpeg decode failed: %w\nstderr: %s", err, stderr.String())
		}
		if stdout.Len() == 0 {
			return nil, fmt.Errorf("ffmpeg produced no picture\nstderr: %s", stderr.String())
		}

		img, err := png.Decode(&stdout)
		if err != nil {
			return nil, fmt.Errorf("decode png: %w", err)
		}
		return img, nil
	}
}
