// Package ingest turns uploaded bytes into a domain.RawTable.
//
// Text uploads are tried under a fixed list of encodings until one decodes
// cleanly and parses as CSV. Excel workbooks are read from their first
// sheet.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/crime-data-analytics/internal/domain"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrNoFile means nothing was uploaded; callers fall back to the sample.
	ErrNoFile = errors.New("no file supplied")

	// ErrUnreadable means every decoding attempt failed. It is fatal for the
	// run and must not fall back to the sample.
	ErrUnreadable = errors.New("file could not be decoded under any supported encoding")
)

// EncodingXLSX is reported for workbook uploads.
const EncodingXLSX = "xlsx"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textEncoding is one candidate decoding of a text upload.
type textEncoding struct {
	name   string
	decode func([]byte) ([]byte, error)
}

// Encodings are tried in this order.
var textEncodings = []textEncoding{
	{name: "utf-8", decode: decodeUTF8},
	{name: "latin1", decode: decodeWith(charmap.ISO8859_1)},
	{name: "utf-16", decode: decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM))},
	{name: "iso-8859-1", decode: decodeWith(charmap.ISO8859_1)},
	{name: "cp1252", decode: decodeWith(charmap.Windows1252)},
}

// Encodings lists the text encodings in the order they are attempted.
func Encodings() []string {
	names := make([]string, len(textEncodings))
	for i, e := range textEncodings {
		names[i] = e.name
	}
	return names
}

// Result is a decoded upload.
type Result struct {
	Table    domain.RawTable
	Encoding string
}

// Decode parses an upload named name. Empty data yields ErrNoFile.
func Decode(name string, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrNoFile
	}

	if isWorkbook(name, data) {
		table, err := readWorkbook(data)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
		}
		return Result{Table: table, Encoding: EncodingXLSX}, nil
	}

	var attempts []error
	for _, enc := range textEncodings {
		text, err := enc.decode(data)
		if err == nil && bytes.IndexByte(text, 0) >= 0 {
			err = errors.New("decoded text contains NUL characters")
		}
		if err != nil {
			attempts = append(attempts, fmt.Errorf("%s: %w", enc.name, err))
			continue
		}

		table, err := parseCSV(text)
		if err != nil {
			attempts = append(attempts, fmt.Errorf("%s: %w", enc.name, err))
			continue
		}
		return Result{Table: table, Encoding: enc.name}, nil
	}
	return Result{}, fmt.Errorf("%w: %w", ErrUnreadable, errors.Join(attempts...))
}

func isWorkbook(name string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return true
	}
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

func decodeUTF8(data []byte) ([]byte, error) {
	out, _, err := transform.Bytes(encoding.UTF8Validator, data)
	if err != nil {
		return nil, err
	}
	return bytes.TrimPrefix(out, utf8BOM), nil
}

func decodeWith(enc encoding.Encoding) func([]byte) ([]byte, error) {
	return func(data []byte) ([]byte, error) {
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, err
		}
		return bytes.TrimPrefix(out, utf8BOM), nil
	}
}
