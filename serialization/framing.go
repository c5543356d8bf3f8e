package serialization

import (
	"encoding/binary"
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// DefaultMaxResponseSize is the receive buffer size executors have historically relied on.
const DefaultMaxResponseSize = 512

var (
	ErrTooLarge        = errors.New("response exceeds maximum size")
	ErrInvalidResponse = errors.New("invalid response")
	ErrUnknownFraming  = errors.New("unknown framing")
)

// Framing reads exactly one response message from the executor's connection.
type Framing interface {
	Name() string
	ReadResponse(r io.Reader, limit int) ([]byte, error)
}

const (
	FramingRaw            = "raw"
	FramingDrain          = "drain"
	FramingLengthPrefixed = "length-prefixed"
)

func ParseFraming(name string) (Framing, error) {
	switch name {
	case FramingRaw, "":
		return Raw{}, nil
	case FramingDrain:
		return Drain{}, nil
	case FramingLengthPrefixed:
		return LengthPrefixed{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownFraming, "'%s'", name)
	}
}

// Raw performs a single read of at most limit bytes.
// Anything the executor sends past that is silently truncated, at a character
// boundary when the limit falls inside a multi-byte character.
type Raw struct{}

func (Raw) Name() string { return FramingRaw }

func (Raw) ReadResponse(r io.Reader, limit int) ([]byte, error) {
	buf := make([]byte, limit)
	n, err := r.Read(buf)
	if n == limit {
		return trimPartialRune(buf), nil
	}
	if n > 0 {
		return buf[:n], nil
	}
	if err == io.EOF {
		return nil, errors.Wrap(ErrInvalidResponse, "connection closed before any data was sent")
	}
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read response")
	}
	return nil, errors.Wrap(ErrInvalidResponse, "empty read")
}

// trimPartialRune drops a trailing incomplete UTF-8 sequence.
func trimPartialRune(data []byte) []byte {
	for back := 1; back < utf8.UTFMax && back <= len(data); back++ {
		start := len(data) - back
		if !utf8.RuneStart(data[start]) {
			continue
		}
		if !utf8.FullRune(data[start:]) {
			return data[:start]
		}
		break
	}
	return data
}

// Drain reads until the executor closes the connection.
type Drain struct{}

func (Drain) Name() string { return FramingDrain }

func (Drain) ReadResponse(r io.Reader, limit int) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read response")
	}
	if len(data) > limit {
		return nil, errors.Wrapf(ErrTooLarge, "more than %d bytes", limit)
	}
	return data, nil
}

// LengthPrefixed expects a 4 byte big-endian payload length before the payload.
type LengthPrefixed struct{}

func (LengthPrefixed) Name() string { return FramingLengthPrefixed }

func (LengthPrefixed) ReadResponse(r io.Reader, limit int) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrap(ErrInvalidResponse, "truncated frame header")
		}
		return nil, errors.Wrap(err, "couldn't read frame header")
	}
	length := binary.BigEndian.Uint32(header[:])
	if uint64(length) > uint64(limit) {
		return nil, errors.Wrapf(ErrTooLarge, "frame of %d bytes, limit is %d", length, limit)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrapf(ErrInvalidResponse, "truncated frame, expected %d bytes", length)
		}
		return nil, errors.Wrap(err, "couldn't read frame")
	}
	return data, nil
}

// WriteFrame writes payload in the LengthPrefixed format.
func WriteFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return errors.Wrap(err, "couldn't write frame header")
	}
	if _, err := w.Write(payload); err != nil {
		return errors.Wrap(err, "couldn't write frame")
	}
	return nil
}

// DecodeResponse turns a response payload into the text shown to the user.
func DecodeResponse(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.Wrap(ErrInvalidResponse, "empty response")
	}
	if !utf8.Valid(data) {
		return "", errors.Wrap(ErrInvalidResponse, "response is not valid UTF-8")
	}
	return string(data), nil
}
