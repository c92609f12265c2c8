// Package logging implements the shared event log used by both the Packer
// and the VFS Adapter.
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// RingBuffer is a fixed-capacity, timestamped circular log.
//
// Both h5vfs executables construct one at startup and thread it through
// their components instead of calling the stdlib log package directly, so
// that a diagnostics surface (or a test) can read back recent history.
type RingBuffer struct {
	mu    sync.Mutex
	out   io.Writer
	buf   []string
	index int
	full  bool
	size  int
}

// NewRingBuffer returns a pointer to a new [RingBuffer] of the given
// capacity. Every line is additionally mirrored to out as it is added.
func NewRingBuffer(size int, out io.Writer) *RingBuffer {
	return &RingBuffer{
		out:  out,
		buf:  make([]string, size),
		size: size,
	}
}

// Size returns the capacity of the ring buffer.
func (b *RingBuffer) Size() int {
	return b.size
}

// Lines returns a copy of the buffer's contents, oldest first.
func (b *RingBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.full {
		out := make([]string, b.index)
		copy(out, b.buf[:b.index])

		return out
	}
	out := make([]string, b.size)
	copy(out, b.buf[b.index:])
	copy(out[b.size-b.index:], b.buf[:b.index])

	return out
}

// Reset returns the ring buffer to its empty, pre-allocated state.
func (b *RingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = make([]string, b.size)
	b.index = 0
	b.full = false
}

// Printf formats and records a line, also writing it to the mirror stream.
func (b *RingBuffer) Printf(format string, args ...any) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	msg := fmt.Sprintf(format, args...)
	full := fmt.Sprintf("%s %s", timestamp, msg)

	b.add(full)
	fmt.Fprintf(b.out, "%s", full)
}

// Println records a line, also writing it to the mirror stream.
func (b *RingBuffer) Println(args ...any) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	msg := fmt.Sprintln(args...)
	full := fmt.Sprintf("%s %s", timestamp, strings.TrimRight(msg, "\n"))

	b.add(full)
	fmt.Fprintf(b.out, "%s", full)
}

// add inserts msg at the current index, wrapping once capacity is reached.
func (b *RingBuffer) add(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf[b.index] = strings.TrimSuffix(msg, "\n")
	b.index = (b.index + 1) % b.size
	if b.index == 0 {
		b.full = true
	}
}
