package weft

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/weftgen/weft/pkg/document"
)

// lookupEncoding resolves an IANA encoding name. Empty and utf-8 need no
// conversion and resolve to nil.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, document.Usagef("unknown encoding %q", name)
	}
	return enc, nil
}

// decodeText converts raw file bytes into a string, applying the selected
// encoding and normalizing newlines to "\n". The detected newline style is
// returned so writes can restore it.
func decodeText(raw []byte, encName string) (text, style string, err error) {
	enc, err := lookupEncoding(encName)
	if err != nil {
		return "", "", err
	}
	if enc != nil {
		raw, err = enc.NewDecoder().Bytes(raw)
		if err != nil {
			return "", "", fmt.Errorf("decoding as %s: %w", encName, err)
		}
	}
	text = string(raw)
	style = "\n"
	if strings.Contains(text, "\r\n") {
		style = "\r\n"
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	return text, style, nil
}

// encodeText converts engine text back to file bytes, restoring the
// newline style (unless forced to "\n") and applying the encoding.
func encodeText(text, encName, style string, unixNewlines bool) ([]byte, error) {
	if style == "\r\n" && !unixNewlines {
		text = strings.ReplaceAll(text, "\n", "\r\n")
	}
	enc, err := lookupEncoding(encName)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return []byte(text), nil
	}
	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encoding as %s: %w", encName, err)
	}
	return out, nil
}
