package protocol

import "encoding/binary"

// Provider is a byte-provider callback used by a streaming-mode Buffer: it
// must block and return exactly n bytes, or fail with a transport error.
// This mirrors streamable_buffer's provider_t in
// _examples/original_source/streamable-buffer.hpp.
type Provider func(n int) ([]byte, error)

// Buffer is the framed stream reader of spec.md section 4.2: a byte buffer
// that can be built two ways.
//
//   - Fixed mode (NewFixedBuffer): constructed from an exact datagram
//     payload. Once a message has been decoded from it, the caller should
//     check Empty() and treat any residual bytes as a protocol error (the
//     UDP datagram is dropped, not the connection).
//   - Streaming mode (NewStreamingBuffer): backed by a Provider. When a
//     decode needs more bytes than the buffer currently holds, it asks the
//     provider for the deficit and blocks until it arrives.
//
// Buffer also serves as the encode-side scratch space: Write* methods
// append to the same byte slice that Read* methods consume from, exactly
// as the C++ streamable_buffer overloads both operator<< and operator>>
// on one deque.
type Buffer struct {
	data     []byte
	provider Provider
}

// NewBuffer returns an empty Buffer suitable for encoding a message before
// it is sent.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// NewFixedBuffer wraps an already-received payload (e.g. one UDP datagram)
// for decoding. There is no provider: an attempted read past the end of
// data fails with *Underflow rather than blocking.
func NewFixedBuffer(data []byte) *Buffer {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &Buffer{data: cp}
}

// NewStreamingBuffer wraps a Provider for decoding messages out of a
// continuous byte-oriented source (a TCP connection). TCP message
// boundaries are discovered by decoding, not by any framing of Buffer's
// own: the codec is self-delimiting.
func NewStreamingBuffer(provider Provider) *Buffer {
	return &Buffer{provider: provider}
}

// Empty reports whether every byte currently held has been consumed. In
// Fixed mode, a non-empty Buffer after a full message decode indicates
// trailing data (spec.md section 4.2).
func (b *Buffer) Empty() bool {
	return len(b.data) == 0
}

// Bytes returns the buffer's current unread/unsent contents.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// require ensures at least n bytes are available to read, pulling from the
// provider (streaming mode) if necessary, or failing with *Underflow
// (fixed mode, no provider).
func (b *Buffer) require(n int) error {
	if len(b.data) >= n {
		return nil
	}
	missing := n - len(b.data)
	if b.provider == nil {
		return newUnderflow(missing)
	}
	chunk, err := b.provider(missing)
	if err != nil {
		return err
	}
	b.data = append(b.data, chunk...)
	return nil
}

func (b *Buffer) take(n int) ([]byte, error) {
	if err := b.require(n); err != nil {
		return nil, err
	}
	out := b.data[:n]
	b.data = b.data[n:]
	return out, nil
}

// ReadUint8 decodes a one-byte unsigned integer.
func (b *Buffer) ReadUint8() (uint8, error) {
	raw, err := b.take(1)
	if err != nil {
		return 0, err
	}
	return raw[0], nil
}

// ReadUint16 decodes a two-byte big-endian unsigned integer.
func (b *Buffer) ReadUint16() (uint16, error) {
	raw, err := b.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(raw), nil
}

// ReadUint32 decodes a four-byte big-endian unsigned integer.
func (b *Buffer) ReadUint32() (uint32, error) {
	raw, err := b.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(raw), nil
}

// ReadBytes decodes n uninterpreted octets.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	raw, err := b.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, raw)
	return out, nil
}

// WriteUint8 encodes a one-byte unsigned integer.
func (b *Buffer) WriteUint8(v uint8) {
	b.data = append(b.data, v)
}

// WriteUint16 encodes a two-byte big-endian unsigned integer.
func (b *Buffer) WriteUint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// WriteUint32 encodes a four-byte big-endian unsigned integer.
func (b *Buffer) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// WriteBytes appends n uninterpreted octets.
func (b *Buffer) WriteBytes(raw []byte) {
	b.data = append(b.data, raw...)
}
