package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
)

// ErrDeviceBusy is returned by devices already held by another process.
var ErrDeviceBusy = errors.New("device busy")

// NoDevice is used where live capture is not available at all.
type NoDevice struct{}

// Open always fails with ReasonUnsupported.
func (NoDevice) Open(context.Context) (Frames, error) {
	return nil, &Error{Reason: ReasonUnsupported}
}

// FileDevice treats a still image on disk as a camera: every frame is the
// file's current content. A lock file next to it provides exclusive access,
// so a second opener sees the device as busy.
type FileDevice struct {
	Path string
}

// Open checks the frame source and takes the device lock.
func (d FileDevice) Open(ctx context.Context) (Frames, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Path == "" {
		return nil, &Error{Reason: ReasonDeviceNotFound, Err: errors.New("no capture device configured")}
	}

	f, err := os.Open(d.Path)
	if err != nil {
		return nil, err
	}
	_ = f.Close()

	lockPath := d.Path + ".lock"
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600) // #nosec G304 -- configured device path
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceBusy, lockPath)
		}
		return nil, err
	}
	_ = lock.Close()

	return &fileFrames{path: d.Path, lockPath: lockPath}, nil
}

type fileFrames struct {
	path     string
	lockPath string
}

func (f *fileFrames) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, nil
}

func (f *fileFrames) Close() error {
	if err := os.Remove(f.lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to release device lock: %w", err)
	}
	return nil
}
