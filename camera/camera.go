// Package camera reads packed YUYV 4:2:2 frames from a V4L2 capture
// device. Frames come back as *yuyv.Frame values backed by pooled buffers;
// release each one when done.
//
//	cam, err := camera.Open("/dev/video0", 640, 480)
//	if err != nil {
//		return err
//	}
//	defer cam.Close()
//	f, err := cam.Next(ctx)
package camera

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/deepteams/yuyv"
)

// DefaultDevice is the first V4L2 capture node.
const DefaultDevice = "/dev/video0"

var (
	// ErrNoYUYV is returned when the device offers no YUYV 4:2:2 format.
	ErrNoYUYV = errors.New("camera: device does not offer YUYV 4:2:2")
	// ErrUnsupported is returned on platforms without V4L2.
	ErrUnsupported = errors.New("camera: capture is only supported on linux")
	// ErrNoControl is returned when the device has no control of that name.
	ErrNoControl = errors.New("camera: no such control")
	// ErrControlRange is returned for a value outside the control's range.
	ErrControlRange = errors.New("camera: control value out of range")
)

// Control describes one device control such as gain, exposure or white
// balance temperature.
type Control struct {
	Name string
	Min  int32
	Max  int32
	id   uint32
}

func (c Control) check(value int32) error {
	if value < c.Min || value > c.Max {
		return fmt.Errorf("%w: %s=%d outside [%d, %d]", ErrControlRange, c.Name, value, c.Min, c.Max)
	}
	return nil
}

// ParseControl splits a "name=value" control setting.
func ParseControl(s string) (name string, value int32, err error) {
	name, v, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, fmt.Errorf("camera: control setting %q is not name=value", s)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("camera: control %s: %w", name, err)
	}
	return name, int32(n), nil
}

// controlKey folds a control name so that "White Balance Temperature",
// "white_balance_temperature" and "whitebalancetemperature" match.
func controlKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func findControl(controls []Control, name string) (Control, error) {
	key := controlKey(name)
	for _, c := range controls {
		if controlKey(c.Name) == key {
			return c, nil
		}
	}
	return Control{}, fmt.Errorf("%w: %q", ErrNoControl, name)
}

// controlCache holds the last value read from or written to each control.
type controlCache map[uint32]int32

// unchanged reports whether id is known to hold value already.
func (cc controlCache) unchanged(id uint32, value int32) bool {
	v, ok := cc[id]
	return ok && v == value
}

func checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("camera: %w: %dx%d", yuyv.ErrInvalidSize, width, height)
	}
	if width&1 != 0 {
		return fmt.Errorf("camera: %w (width %d)", yuyv.ErrOddWidth, width)
	}
	return nil
}
