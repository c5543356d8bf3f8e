package serialization

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFraming(t *testing.T) {
	for _, name := range []string{FramingRaw, FramingDrain, FramingLengthPrefixed} {
		f, err := ParseFraming(name)
		require.NoError(t, err)
		assert.Equal(t, name, f.Name())
	}

	f, err := ParseFraming("")
	require.NoError(t, err)
	assert.Equal(t, FramingRaw, f.Name())

	_, err = ParseFraming("chunked")
	assert.True(t, errors.Is(err, ErrUnknownFraming))
}

func TestRawTruncates(t *testing.T) {
	payload := strings.Repeat("x", 600)

	data, err := Raw{}.ReadResponse(strings.NewReader(payload), DefaultMaxResponseSize)
	require.NoError(t, err)
	assert.Len(t, data, DefaultMaxResponseSize)
}

func TestRawTruncatesAtCharacterBoundary(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "two byte character split",
			payload: strings.Repeat("a", 511) + "é",
			want:    strings.Repeat("a", 511),
		},
		{
			name:    "three byte character split",
			payload: strings.Repeat("a", 511) + "€",
			want:    strings.Repeat("a", 511),
		},
		{
			name:    "three byte character split after two bytes",
			payload: strings.Repeat("a", 510) + "€",
			want:    strings.Repeat("a", 510),
		},
		{
			name:    "character ends on the limit",
			payload: strings.Repeat("a", 510) + "é" + "tail",
			want:    strings.Repeat("a", 510) + "é",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Raw{}.ReadResponse(strings.NewReader(tt.payload), DefaultMaxResponseSize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			text, err := DecodeResponse(data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestRawEmpty(t *testing.T) {
	_, err := Raw{}.ReadResponse(strings.NewReader(""), DefaultMaxResponseSize)
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}

func TestDrain(t *testing.T) {
	data, err := Drain{}.ReadResponse(strings.NewReader(strings.Repeat("y", 512)), DefaultMaxResponseSize)
	require.NoError(t, err)
	assert.Len(t, data, 512)

	_, err = Drain{}.ReadResponse(strings.NewReader(strings.Repeat("y", 513)), DefaultMaxResponseSize)
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestLengthPrefixed(t *testing.T) {
	payload := []byte(strings.Repeat("z", 2000))

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, payload))
	buf.WriteString("trailing bytes belong to nobody")

	data, err := LengthPrefixed{}.ReadResponse(&buf, 4096)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestLengthPrefixedErrors(t *testing.T) {
	var tooLarge bytes.Buffer
	require.NoError(t, WriteFrame(&tooLarge, make([]byte, 100)))
	_, err := LengthPrefixed{}.ReadResponse(&tooLarge, 99)
	assert.True(t, errors.Is(err, ErrTooLarge))

	_, err = LengthPrefixed{}.ReadResponse(bytes.NewReader([]byte{0, 0}), 99)
	assert.True(t, errors.Is(err, ErrInvalidResponse))

	_, err = LengthPrefixed{}.ReadResponse(bytes.NewReader([]byte{0, 0, 0, 10, 'a'}), 99)
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}

func TestDecodeResponse(t *testing.T) {
	text, err := DecodeResponse([]byte("1986"))
	require.NoError(t, err)
	assert.Equal(t, "1986", text)

	_, err = DecodeResponse(nil)
	assert.True(t, errors.Is(err, ErrInvalidResponse))

	_, err = DecodeResponse([]byte{0xff, 0xfe})
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}
