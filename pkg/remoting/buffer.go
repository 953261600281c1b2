// Copyright The Dubbo Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package remoting

import "fmt"

// A Buffer is a byte buffer with independent reader and writer indexes.
// Codecs consume a Buffer and never touch sockets; the transport feeds
// received bytes in with Write* and drains encoded frames with Bytes.
// The reader index can be marked and reset so a codec can back out of a
// partial frame, and SetBytes supports back-patching a header after the
// body length is known.
type Buffer struct {
	data   []byte
	rIdx   int
	marked int
}

// NewBuffer returns an empty Buffer with the given initial capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

// WrappedBuffer wraps b for reading; the writer index is at len(b).
func WrappedBuffer(b []byte) *Buffer {
	return &Buffer{data: b}
}

// ReadableBytes returns the number of unread bytes.
func (b *Buffer) ReadableBytes() int { return len(b.data) - b.rIdx }

// ReaderIndex returns the current reader index.
func (b *Buffer) ReaderIndex() int { return b.rIdx }

// SetReaderIndex moves the reader index to idx.
func (b *Buffer) SetReaderIndex(idx int) {
	if idx < 0 || idx > len(b.data) {
		panic(fmt.Sprintf("buffer: reader index %d out of range [0,%d]", idx, len(b.data)))
	}
	b.rIdx = idx
}

// MarkReader records the reader index for a later ResetReader.
func (b *Buffer) MarkReader() { b.marked = b.rIdx }

// ResetReader restores the reader index recorded by MarkReader.
func (b *Buffer) ResetReader() { b.rIdx = b.marked }

// ReadByte consumes and returns one byte.
func (b *Buffer) ReadByte() (byte, error) {
	if b.ReadableBytes() < 1 {
		return 0, fmt.Errorf("buffer: read past end")
	}
	c := b.data[b.rIdx]
	b.rIdx++
	return c, nil
}

// ReadBytes consumes and returns up to n bytes.
func (b *Buffer) ReadBytes(n int) []byte {
	if n > b.ReadableBytes() {
		n = b.ReadableBytes()
	}
	out := make([]byte, n)
	copy(out, b.data[b.rIdx:b.rIdx+n])
	b.rIdx += n
	return out
}

// Skip discards n readable bytes.
func (b *Buffer) Skip(n int) {
	if n > b.ReadableBytes() {
		n = b.ReadableBytes()
	}
	b.rIdx += n
}

// WriterIndex returns the current writer index.
func (b *Buffer) WriterIndex() int { return len(b.data) }

// SetWriterIndex truncates the buffer to idx, discarding later bytes.
// idx must not precede the reader index.
func (b *Buffer) SetWriterIndex(idx int) {
	if idx < b.rIdx || idx > len(b.data) {
		panic(fmt.Sprintf("buffer: writer index %d out of range [%d,%d]", idx, b.rIdx, len(b.data)))
	}
	b.data = b.data[:idx]
}

// WriteByte appends one byte.
func (b *Buffer) WriteByte(c byte) {
	b.data = append(b.data, c)
}

// WriteBytes appends p.
func (b *Buffer) WriteBytes(p []byte) {
	b.data = append(b.data, p...)
}

// SetBytes overwrites already-written bytes at the absolute index.
func (b *Buffer) SetBytes(idx int, p []byte) {
	if idx < 0 || idx+len(p) > len(b.data) {
		panic(fmt.Sprintf("buffer: set %d bytes at %d out of range [0,%d]", len(p), idx, len(b.data)))
	}
	copy(b.data[idx:], p)
}

// Bytes returns the readable bytes without consuming them. The slice
// aliases the buffer and is valid until the next write.
func (b *Buffer) Bytes() []byte {
	return b.data[b.rIdx:]
}
