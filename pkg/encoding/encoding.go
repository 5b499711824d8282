// Package encoding provides text decoding for model files.
// Text formats may arrive as UTF-8 or UTF-16 with a byte order mark; legacy binary
// formats store fixed-size EUC-KR names.
package encoding

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText converts a text payload to a UTF-8 string.
// A UTF-8 or UTF-16 byte order mark selects the source encoding and is stripped;
// without one the payload is taken as UTF-8.
func DecodeText(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	result, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// EUCKRToUTF8 converts EUC-KR encoded bytes to a UTF-8 string.
// Valid UTF-8 input and undecodable input are returned unchanged.
func EUCKRToUTF8(data []byte) string {
	if isASCII(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToEUCKR converts a UTF-8 string to EUC-KR bytes.
func UTF8ToEUCKR(s string) []byte {
	result, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// FixedStringToUTF8 converts a null-padded EUC-KR byte array to a UTF-8 string.
func FixedStringToUTF8(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return EUCKRToUTF8(data)
}

// UTF8ToFixedString converts s to a null-padded EUC-KR byte array of the given size.
func UTF8ToFixedString(s string, size int) []byte {
	out := make([]byte, size)
	copy(out, UTF8ToEUCKR(s))
	return out
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
