package patchtext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var errUnsupportedEncoding = errors.New("patchtext: unsupported encoding")

// decodeInput converts data to UTF-8. A byte order mark wins over enc.
func decodeInput(data []byte, enc string) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		return data[len(utf8BOM):], nil
	case bytes.HasPrefix(data, utf16LEBOM):
		return transcode(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), data[len(utf16LEBOM):])
	case bytes.HasPrefix(data, utf16BEBOM):
		return transcode(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), data[len(utf16BEBOM):])
	}

	switch strings.ToUpper(strings.TrimSpace(enc)) {
	case "", EncodingUTF8, "UTF8":
		return data, nil
	case EncodingUTF16LE:
		return transcode(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), data)
	case EncodingUTF16BE:
		return transcode(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), data)
	case EncodingWindows1252, "CP1252":
		return transcode(charmap.Windows1252, data)
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedEncoding, enc)
	}
}

func transcode(enc encoding.Encoding, data []byte) ([]byte, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("patchtext: decode input: %w", err)
	}
	return out, nil
}

// ValidEncoding reports whether enc is accepted by Options.InputEncoding.
func ValidEncoding(enc string) bool {
	_, err := decodeInput(nil, enc)
	return err == nil
}
