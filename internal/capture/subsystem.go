package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	// Registered decoders for ingested files.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Limits on ingested files. A compressed file can declare a canvas far
// larger than its byte size, so dimensions are checked before decoding.
const (
	MaxFileBytes = 32 << 20
	MaxPixels    = 50_000_000
)

// Frames is an open device stream.
type Frames interface {
	// Frame returns the current frame.
	Frame(ctx context.Context) (image.Image, error)
	// Close releases the device.
	Close() error
}

// Device opens capture streams.
type Device interface {
	Open(ctx context.Context) (Frames, error)
}

// Subsystem mediates camera and file access. While a stream is open it owns
// exclusive access to the device.
type Subsystem struct {
	device Device
	open   *Stream
	now    func() time.Time
	mu     sync.Mutex
}

// NewSubsystem creates a subsystem for device. A nil device behaves as NoDevice.
func NewSubsystem(device Device) *Subsystem {
	if device == nil {
		device = NoDevice{}
	}
	return &Subsystem{
		device: device,
		now:    time.Now,
	}
}

// RequestCapture chooses an acquisition strategy. Mobile form factors go
// straight to the file chooser without touching the device. On desktop the
// device is opened; any failure is categorized and returned as a Fallback
// with the file chooser strategy, never as an error. Only context
// cancellation is returned as an error.
func (s *Subsystem) RequestCapture(ctx context.Context, ff FormFactor) (Plan, error) {
	if ff == FormFactorMobile {
		slog.Debug("Mobile form factor, using file chooser")
		return Plan{Strategy: StrategyFileChooser}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open != nil {
		return fallback(&Error{Reason: ReasonDeviceBusy, Err: errors.New("a capture stream is already open")}), nil
	}

	frames, err := s.device.Open(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Plan{}, ctxErr
		}
		ce := classify(err)
		slog.Info("Live capture unavailable, falling back to file chooser",
			"reason", ce.Reason,
			"error", err)
		return fallback(ce), nil
	}

	stream := &Stream{frames: frames, owner: s}
	s.open = stream
	slog.Debug("Opened capture stream")
	return Plan{Strategy: StrategyLiveStream, Stream: stream}, nil
}

func fallback(ce *Error) Plan {
	return Plan{Strategy: StrategyFileChooser, Fallback: ce}
}

// classify maps a device error onto a capture reason.
func classify(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	switch {
	case errors.Is(err, os.ErrPermission):
		return &Error{Reason: ReasonPermissionDenied, Err: err}
	case errors.Is(err, os.ErrNotExist):
		return &Error{Reason: ReasonDeviceNotFound, Err: err}
	case errors.Is(err, ErrDeviceBusy):
		return &Error{Reason: ReasonDeviceBusy, Err: err}
	default:
		return &Error{Reason: ReasonUnsupported, Err: err}
	}
}

// CaptureFrame snapshots the stream's current frame into a static image and
// releases the stream, whether or not the snapshot succeeds.
func (s *Subsystem) CaptureFrame(ctx context.Context, stream *Stream) (*ImageResult, error) {
	if stream == nil {
		return nil, ErrStreamReleased
	}
	if stream.Released() {
		return nil, ErrStreamReleased
	}
	defer func() {
		if err := stream.Release(); err != nil {
			slog.Warn("Failed to release capture stream", "error", err)
		}
	}()

	frame, err := stream.frames.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}

	still, err := snapshot(frame)
	if err != nil {
		return nil, err
	}

	b := still.Bounds()
	return &ImageResult{
		Image:      still,
		Format:     "frame",
		Source:     SourceCamera,
		Width:      b.Dx(),
		Height:     b.Dy(),
		CapturedAt: s.now(),
	}, nil
}

// snapshot copies a frame so later device writes cannot change it.
func snapshot(frame image.Image) (*image.RGBA, error) {
	if frame == nil {
		return nil, ErrEmptyImage
	}
	b := frame.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), frame, b.Min, draw.Src)
	return dst, nil
}

// IngestFile decodes a selected file into an ImageResult.
func (s *Subsystem) IngestFile(ctx context.Context, name string, r io.Reader) (*ImageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: no file", ErrUnsupportedImage)
	}

	limited := io.LimitReader(r, MaxFileBytes)
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(limited, &header))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedImage, name, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyImage, name)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %s is %d × %d", ErrImageTooLarge, name, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(io.MultiReader(&header, limited))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedImage, name, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrEmptyImage, name)
	}

	slog.Debug("Ingested image file",
		"name", name,
		"format", format,
		"width", b.Dx(),
		"height", b.Dy())

	return &ImageResult{
		Image:      img,
		Format:     format,
		Source:     SourceFile,
		Name:       name,
		Width:      b.Dx(),
		Height:     b.Dy(),
		CapturedAt: s.now(),
	}, nil
}

// IngestPath opens and decodes the file at path.
func (s *Subsystem) IngestPath(ctx context.Context, path string) (*ImageResult, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-selected file
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	return s.IngestFile(ctx, path, f)
}

// Open reports whether a stream is currently open.
func (s *Subsystem) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open != nil
}

// Close releases any open stream. It is safe to call more than once.
func (s *Subsystem) Close() error {
	s.mu.Lock()
	stream := s.open
	s.mu.Unlock()

	if stream == nil {
		return nil
	}
	return stream.Release()
}

func (s *Subsystem) streamReleased(stream *Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open == stream {
		s.open = nil
	}
}

// Stream is an open live capture. Its device handle is released exactly once.
type Stream struct {
	frames   Frames
	owner    *Subsystem
	err      error
	once     sync.Once
	mu       sync.Mutex
	released bool
}

// Release closes the underlying device. Later calls return the first result.
func (st *Stream) Release() error {
	st.once.Do(func() {
		st.err = st.frames.Close()
		st.mu.Lock()
		st.released = true
		st.mu.Unlock()
		if st.owner != nil {
			st.owner.streamReleased(st)
		}
		slog.Debug("Released capture stream")
	})
	return st.err
}

// Released reports whether Release has run.
func (st *Stream) Released() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.released
}
