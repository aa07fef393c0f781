//go:build !linux

package camera

import (
	"context"

	"github.com/deepteams/yuyv"
)

// Camera is unavailable on this platform.
type Camera struct{}

// Open validates the size and returns ErrUnsupported.
func Open(device string, width, height int) (*Camera, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	return nil, ErrUnsupported
}

// Size returns 0, 0.
func (c *Camera) Size() (width, height int) { return 0, 0 }

// Next returns ErrUnsupported.
func (c *Camera) Next(ctx context.Context) (*yuyv.Frame, error) { return nil, ErrUnsupported }

// Controls returns nil.
func (c *Camera) Controls() []Control { return nil }

// SetControl returns ErrUnsupported.
func (c *Camera) SetControl(name string, value int32) error { return ErrUnsupported }

// ControlValue returns ErrUnsupported.
func (c *Camera) ControlValue(name string) (int32, error) { return 0, ErrUnsupported }

// Close is a no-op.
func (c *Camera) Close() error { return nil }
