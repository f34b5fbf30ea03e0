package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"go.uber.org/multierr"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// IOError reports a DDL file that could not be read or decoded.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cannot read DDL file %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

var errReplacementRune = errors.New("decoded text contains replacement characters")

type textDecoder struct {
	name   string
	decode func([]byte) (string, error)
}

// decodeLadder is tried in order; the first successful decode wins.
var decodeLadder = []textDecoder{
	{name: "utf-8", decode: decodeUTF8},
	{name: "gbk", decode: decodeGBK},
	{name: "latin-1", decode: decodeLatin1},
}

func readDDLFile(path string) (text, encoding string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", &IOError{Path: path, Err: err}
	}
	text, encoding, err = decodeText(data)
	if err != nil {
		return "", "", &IOError{Path: path, Err: err}
	}
	return text, encoding, nil
}

func decodeText(data []byte) (string, string, error) {
	var errs error
	for _, d := range decodeLadder {
		text, err := d.decode(data)
		if err == nil {
			return text, d.name, nil
		}
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", d.name, err))
	}
	return "", "", errs
}

func decodeUTF8(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", errors.New("invalid UTF-8 sequence")
	}
	return string(data), nil
}

func decodeGBK(data []byte) (string, error) {
	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", errReplacementRune
	}
	return string(out), nil
}

func decodeLatin1(data []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
