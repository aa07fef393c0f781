//go:build linux

package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/blackjack/webcam"

	"github.com/deepteams/yuyv"
)

// waitTimeout is the per-poll frame timeout in seconds. Next polls again
// after a timeout until its context is done.
const waitTimeout = 1

// Camera is an open, streaming capture device.
type Camera struct {
	cam      *webcam.Webcam
	width    int
	height   int
	controls []Control
	cache    controlCache
}

// Open opens device, selects the YUYV 4:2:2 format at the requested size
// and starts streaming. The driver may pick a different size; Size reports
// the one in effect.
func Open(device string, width, height int) (*Camera, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	cam, err := webcam.Open(device)
	if err != nil {
		return nil, fmt.Errorf("camera: opening %s: %w", device, err)
	}

	var format webcam.PixelFormat
	found := false
	for f, name := range cam.GetSupportedFormats() {
		if strings.HasPrefix(name, "YUYV") || strings.HasPrefix(name, "YUV 4:2:2") {
			format, found = f, true
			break
		}
	}
	if !found {
		cam.Close()
		return nil, fmt.Errorf("%w (%s)", ErrNoYUYV, device)
	}

	_, w, h, err := cam.SetImageFormat(format, uint32(width), uint32(height))
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("camera: setting %dx%d YUYV on %s: %w", width, height, device, err)
	}
	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("camera: starting stream on %s: %w", device, err)
	}
	return &Camera{cam: cam, width: int(w), height: int(h), cache: controlCache{}}, nil
}

// Controls lists the device's controls sorted by name.
func (c *Camera) Controls() []Control {
	if c.controls == nil {
		for id, ctl := range c.cam.GetControls() {
			c.controls = append(c.controls, Control{Name: ctl.Name, Min: ctl.Min, Max: ctl.Max, id: uint32(id)})
		}
		slices.SortFunc(c.controls, func(a, b Control) int { return strings.Compare(a.Name, b.Name) })
	}
	return c.controls
}

// SetControl sets the named control. Names match ignoring case, spaces and
// punctuation. Writing the value a control already holds is a no-op.
func (c *Camera) SetControl(name string, value int32) error {
	ctl, err := findControl(c.Controls(), name)
	if err != nil {
		return err
	}
	if err := ctl.check(value); err != nil {
		return err
	}
	if c.cache.unchanged(ctl.id, value) {
		return nil
	}
	if err := c.cam.SetControl(webcam.ControlID(ctl.id), value); err != nil {
		return fmt.Errorf("camera: setting %s: %w", ctl.Name, err)
	}
	c.cache[ctl.id] = value
	return nil
}

// ControlValue returns the value of the named control, from the cache when
// it has been read or written before.
func (c *Camera) ControlValue(name string) (int32, error) {
	ctl, err := findControl(c.Controls(), name)
	if err != nil {
		return 0, err
	}
	if v, ok := c.cache[ctl.id]; ok {
		return v, nil
	}
	v, err := c.cam.GetControl(webcam.ControlID(ctl.id))
	if err != nil {
		return 0, fmt.Errorf("camera: reading %s: %w", ctl.Name, err)
	}
	c.cache[ctl.id] = v
	return v, nil
}

// Size returns the negotiated frame size in pixels.
func (c *Camera) Size() (width, height int) {
	return c.width, c.height
}

// Next blocks until the device delivers a frame or ctx is done. The frame
// is a copy; the caller owns it and should Release it.
func (c *Camera) Next(ctx context.Context) (*yuyv.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := c.cam.WaitForFrame(waitTimeout)
		var timeout *webcam.Timeout
		switch {
		case err == nil:
		case errors.As(err, &timeout):
			continue
		default:
			return nil, fmt.Errorf("camera: waiting for frame: %w", err)
		}

		buf, err := c.cam.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("camera: reading frame: %w", err)
		}
		if len(buf) == 0 {
			continue
		}
		return yuyv.ReadFrame(bytes.NewReader(buf), c.width, c.height)
	}
}

// Close stops streaming and releases the device.
func (c *Camera) Close() error {
	stopErr := c.cam.StopStreaming()
	if err := c.cam.Close(); err != nil {
		return fmt.Errorf("camera: closing: %w", err)
	}
	if stopErr != nil {
		return fmt.Errorf("camera: stopping stream: %w", stopErr)
	}
	return nil
}
