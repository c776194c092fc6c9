package rpi

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
)

// Camera captures stills through the rpicam-still tool (libcamera's
// supported CLI on Pi OS). Start only verifies the binary exists; the
// sensor itself is opened per capture, which keeps it free between
// episodes.
type Camera struct {
	binary string
	width  int
	height int
}

func NewCamera(width, height int) (*Camera, error) {
	binary, err := exec.LookPath("rpicam-still")
	if err != nil {
		// Older Pi OS releases ship the same tool under the libcamera name.
		binary, err = exec.LookPath("libcamera-still")
		if err != nil {
			return nil, fmt.Errorf("no rpicam-still or libcamera-still in PATH: %w", err)
		}
	}
	return &Camera{binary: binary, width: width, height: height}, nil
}

func (c *Camera) Start() error { return nil }

func (c *Camera) CaptureTo(path string) error {
	cmd := exec.Command(c.binary,
		"--nopreview",
		"--immediate",
		"--width", strconv.Itoa(c.width),
		"--height", strconv.Itoa(c.height),
		"--output", path,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.binary, err, bytes.TrimSpace(out.Bytes()))
	}
	return nil
}

func (c *Camera) Stop() error { return nil }
