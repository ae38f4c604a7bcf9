//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  capture_ffmpeg.go provides a Capture that decodes streams with an ffmpeg
  process, piping raw RGBA frames.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package stream

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"

	"github.com/ausocean/streamdetect/frame"
	"github.com/ausocean/utils/logging"
)

// FFmpeg is a Capture that uses an ffmpeg process to decode a stream. The
// frame size is found with ffprobe when the stream is opened.
type FFmpeg struct {
	uri  string
	size image.Point
	cmd  *exec.Cmd
	out  io.ReadCloser
	log  logging.Logger
}

// NewCapture returns a Capture for the stream at uri.
func NewCapture(uri string, log logging.Logger) Capture {
	return &FFmpeg{uri: uri, log: log}
}

// Open probes the stream for its frame size and starts decoding it.
func (c *FFmpeg) Open() error {
	var err error
	c.size, err = probeSize(c.uri)
	if err != nil {
		return err
	}

	args := []string{
		"-loglevel", "error",
		"-i", c.uri,
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	}
	c.log.Info(pkg+"ffmpeg args", "args", strings.Join(args, " "))
	c.cmd = exec.Command("ffmpeg", args...)

	c.out, err = c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create pipe: %w", err)
	}

	stderr, err := c.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("could not pipe command error: %w", err)
	}
	go func() {
		s := bufio.NewScanner(stderr)
		for s.Scan() {
			c.log.Warning(pkg+"ffmpeg", "stderr", s.Text())
		}
	}()

	err = c.cmd.Start()
	if err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	c.log.Info(pkg+"ffmpeg started", "uri", c.uri, "size", c.size)
	return nil
}

// Read reads the next frame as a frame.Image.
func (c *FFmpeg) Read() (frame.Frame, error) {
	if c.out == nil {
		return nil, errors.New("ffmpeg not running")
	}
	img := image.NewRGBA(image.Rectangle{Max: c.size})
	_, err := io.ReadFull(c.out, img.Pix)
	if err != nil {
		return nil, fmt.Errorf("could not read frame: %w", err)
	}
	return frame.NewImage(img), nil
}

// Close kills the ffmpeg process. It is a no-op if it is not running.
func (c *FFmpeg) Close() error {
	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}
	err := c.cmd.Process.Kill()
	c.cmd.Wait()
	c.cmd, c.out = nil, nil
	if err != nil {
		return fmt.Errorf("could not kill ffmpeg process: %w", err)
	}
	return nil
}

// probeSize returns the frame size of the first video stream at uri.
func probeSize(uri string) (image.Point, error) {
	out, err := exec.Command(
		"ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		uri,
	).Output()
	if err != nil {
		return image.Point{}, fmt.Errorf("could not probe stream: %w", err)
	}
	return parseSize(string(out))
}

// parseSize parses a size of the form "<width>x<height>".
func parseSize(s string) (image.Point, error) {
	var p image.Point
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%dx%d", &p.X, &p.Y)
	if err != nil {
		return image.Point{}, fmt.Errorf("could not parse frame size %q: %w", s, err)
	}
	if p.X <= 0 || p.Y <= 0 {
		return image.Point{}, fmt.Errorf("invalid frame size %v", p)
	}
	return p, nil
}
