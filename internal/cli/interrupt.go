package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// InterruptHandler prints a friendly notice when a command's context is
// cancelled before the command finishes. Signal delivery itself is left to
// the command runner, which cancels the context.
type InterruptHandler struct {
	writer      io.Writer
	done        chan struct{}
	hint        string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{writer: writer, done: make(chan struct{})}
}

// Watch reports an interruption if ctx ends before Finish is called. The
// optional hint is printed under the notice.
func (h *InterruptHandler) Watch(ctx context.Context, hint string) {
	h.mu.Lock()
	h.hint = hint
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-h.done:
			return
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		select {
		case <-h.done:
			return
		default:
		}
		if !h.interrupted {
			h.interrupted = true
			h.showInterruptMessage()
		}
	}()
}

// Finish marks the command as complete; later cancellations are not
// reported. Safe to call more than once.
func (h *InterruptHandler) Finish() {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n" + FormatWarning("Session interrupted. No exhibition was requested.")
	if h.hint != "" {
		msg += "\n" + FormatInfo(h.hint)
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		slog.Warn("Failed to write interrupt message", "error", err)
	}
}

// WasInterrupted returns true if the context ended before Finish.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
