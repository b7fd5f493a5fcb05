package lexer

import (
	"bufio"
	"bytes"
	"io"
)

// ByteSource supplies the bytes a lexer reads. ReadByte and PeekByte return io.EOF when the
// source is exhausted. PeekByte must not consume the byte; the next ReadByte returns the same one.
type ByteSource interface {
	ReadByte() (byte, error)
	PeekByte() (byte, error)
}

type readerSource struct {
	r *bufio.Reader
}

// NewReaderSource returns a ByteSource reading from `r`. To cancel lexing, make `r` return io.EOF.
func NewReaderSource(r io.Reader) ByteSource {
	return &readerSource{
		r: bufio.NewReader(r),
	}
}

// NewBytesSource returns a ByteSource over `src`.
func NewBytesSource(src []byte) ByteSource {
	return NewReaderSource(bytes.NewReader(src))
}

func (s *readerSource) ReadByte() (byte, error) {
	return s.r.ReadByte()
}

func (s *readerSource) PeekByte() (byte, error) {
	b, err := s.r.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}
