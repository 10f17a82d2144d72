// Package keyboard buffers key presses between the terminal reader and
// the interpreter's INKEY() function.
package keyboard

import (
	"sync"

	"github.com/emirpasic/gods/queues/circularbuffer"
)

// BufferSize is the size of the ring. One slot always stays free, so
// Capacity bytes can be pending at once.
const (
	BufferSize = 16
	Capacity   = BufferSize - 1
)

// Buffer is a bounded FIFO of key bytes. Pushing into a full buffer drops
// the new byte. It is safe for concurrent use.
type Buffer struct {
	mu    sync.Mutex
	queue *circularbuffer.Queue
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{queue: circularbuffer.New(Capacity)}
}

// Push enqueues one byte and reports whether it was accepted.
func (b *Buffer) Push(key byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Der Ringpuffer würde sonst den ältesten Eintrag überschreiben
	if b.queue.Full() {
		return false
	}
	b.queue.Enqueue(key)
	return true
}

// PushString enqueues every byte of s until the buffer is full and
// returns the number of bytes accepted.
func (b *Buffer) PushString(s string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for i := 0; i < len(s); i++ {
		if b.queue.Full() {
			break
		}
		b.queue.Enqueue(s[i])
		n++
	}
	return n
}

// Pop removes and returns the oldest byte.
func (b *Buffer) Pop() (byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	value, ok := b.queue.Dequeue()
	if !ok {
		return 0, false
	}
	return value.(byte), true
}

// NextKey implements tinybasic.KeySource.
func (b *Buffer) NextKey() (byte, bool) {
	return b.Pop()
}

// Len returns the number of pending bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.Size()
}

// Clear drops all pending bytes.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.Clear()
}

// KeyToBytes converts a browser key name to the bytes INKEY() sees.
// Unknown multi-character names map to "".
func KeyToBytes(jsKey string) string {
	switch jsKey {
	case "Escape":
		return "\x1B"
	case "ArrowUp":
		return "\x1B[A"
	case "ArrowDown":
		return "\x1B[B"
	case "ArrowRight":
		return "\x1B[C"
	case "ArrowLeft":
		return "\x1B[D"
	case "Backspace":
		return "\x7F"
	case "Delete":
		return "\x1B[3~"
	case "Enter":
		return "\r"
	case "Space":
		return " "
	case "Tab":
		return "\t"
	default:
		// Normale Zeichen direkt übernehmen
		if len(jsKey) == 1 {
			return jsKey
		}
		return ""
	}
}
