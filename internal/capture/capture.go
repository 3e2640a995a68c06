// Package capture acquires a single still image from a live camera stream or
// from a chosen file, normalizing both into the same ImageResult.
//
// This package is the only place that touches capture devices.
package capture

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"
)

// FormFactor is the client's device class.
type FormFactor string

const (
	// FormFactorDesktop prefers a live camera stream.
	FormFactorDesktop FormFactor = "desktop"
	// FormFactorMobile prefers the native file/camera chooser.
	FormFactorMobile FormFactor = "mobile"
)

var mobileHints = []string{"mobile", "android", "iphone", "ipad", "ipod", "tablet"}

// ParseFormFactor recognizes a form factor from a hint or user agent string.
// Anything not recognized as mobile is treated as desktop.
func ParseFormFactor(hint string) FormFactor {
	h := strings.ToLower(strings.TrimSpace(hint))
	for _, m := range mobileHints {
		if strings.Contains(h, m) {
			return FormFactorMobile
		}
	}
	return FormFactorDesktop
}

// Strategy is the acquisition path chosen for a capture request.
type Strategy string

const (
	// StrategyLiveStream snapshots a frame from an open device stream.
	StrategyLiveStream Strategy = "live_stream"
	// StrategyFileChooser ingests a file the operator selects.
	StrategyFileChooser Strategy = "file_chooser"
)

// Source records which path produced an image.
type Source string

const (
	// SourceCamera is a frame captured from a live stream.
	SourceCamera Source = "camera"
	// SourceFile is a decoded file.
	SourceFile Source = "file"
)

// Reason categorizes why live capture is unavailable.
type Reason string

const (
	ReasonPermissionDenied Reason = "permission_denied"
	ReasonDeviceNotFound   Reason = "device_not_found"
	ReasonDeviceBusy       Reason = "device_busy"
	ReasonUnsupported      Reason = "unsupported"
)

// Message is the short human-readable explanation for the reason. Each
// reason has its own remediation, so messages stay specific.
func (r Reason) Message() string {
	switch r {
	case ReasonPermissionDenied:
		return "Camera access was denied. Allow camera access in your settings, or choose a photo instead."
	case ReasonDeviceNotFound:
		return "No camera was found. Connect a camera, or choose a photo instead."
	case ReasonDeviceBusy:
		return "The camera is being used by another application. Close it and try again, or choose a photo instead."
	case ReasonUnsupported:
		return "Live capture is not supported on this device. Choose a photo instead."
	default:
		return "The camera is unavailable. Choose a photo instead."
	}
}

var (
	// ErrCaptureUnavailable matches every *Error.
	ErrCaptureUnavailable = errors.New("capture unavailable")
	// ErrStreamReleased is returned when a released stream is used.
	ErrStreamReleased = errors.New("capture stream already released")
	// ErrUnsupportedImage is returned when a file cannot be decoded.
	ErrUnsupportedImage = errors.New("unsupported image")
	// ErrEmptyImage is returned for images without pixels.
	ErrEmptyImage = errors.New("image has no pixels")
	// ErrImageTooLarge is returned when a file declares more than MaxPixels.
	ErrImageTooLarge = errors.New("image dimensions too large")
)

// Error describes a failed attempt to acquire the capture device.
type Error struct {
	Err    error
	Reason Reason
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture unavailable (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("capture unavailable (%s)", e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCaptureUnavailable) true for any *Error.
func (e *Error) Is(target error) bool {
	return target == ErrCaptureUnavailable
}

// Message returns the user-facing text for the failure.
func (e *Error) Message() string {
	return e.Reason.Message()
}

// ReasonOf extracts the categorized reason from err.
func ReasonOf(err error) (Reason, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Reason, true
	}
	return "", false
}

// ImageResult is a decoded still image, independent of how it was acquired.
type ImageResult struct {
	CapturedAt time.Time
	Image      image.Image
	Format     string
	Source     Source
	Name       string
	Width      int
	Height     int
}

// Plan is the outcome of a capture request.
type Plan struct {
	// Stream is set for StrategyLiveStream.
	Stream *Stream
	// Fallback is set when live capture was attempted and failed.
	Fallback *Error
	Strategy Strategy
}
