// Package textutil provides byte-level corpus utilities: binary detection
// and tokenization into words, lines, or identifier runs.
package textutil

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// BinarySniffLength is the maximum number of bytes scanned for null-byte
// detection. Matches the heuristic used by Git and most editors.
const BinarySniffLength = 8000

// Scanner buffer sizing. Line mode must survive minified or generated
// inputs whose lines exceed bufio's default token cap.
const (
	scanBufferSize = 64 * 1024
	maxTokenSize   = 1 << 20
)

// ErrUnknownMode is returned when a token mode name is not recognized.
var ErrUnknownMode = errors.New("textutil: unknown token mode")

// Mode selects how a corpus is split into tokens.
type Mode string

// Available token modes.
const (
	// ModeWords splits on whitespace runs.
	ModeWords Mode = "words"

	// ModeLines splits on newlines, dropping the terminator.
	ModeLines Mode = "lines"

	// ModeIdents extracts identifier runs: an ASCII letter or underscore
	// followed by letters, digits, or underscores. Everything else,
	// multi-byte runes included, separates.
	ModeIdents Mode = "idents"
)

// ParseMode maps a configuration name to a token mode.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case ModeWords, ModeLines, ModeIdents:
		return Mode(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// IsBinary returns true if data contains a null byte within the first
// BinarySniffLength bytes. Empty data is not binary.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// NewScanner returns a scanner over r that yields one token per Scan
// according to mode. Callers check scanner.Err() after the loop as usual.
func NewScanner(r io.Reader, mode Mode) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, scanBufferSize), maxTokenSize)

	switch mode {
	case ModeLines:
		s.Split(bufio.ScanLines)
	case ModeIdents:
		s.Split(ScanIdents)
	case ModeWords:
		s.Split(bufio.ScanWords)
	default:
		// Unvalidated modes degrade to word splitting; ParseMode is the
		// validation surface.
		s.Split(bufio.ScanWords)
	}

	return s
}

// ScanIdents is a bufio.SplitFunc that returns identifier runs and skips
// everything between them.
func ScanIdents(data []byte, atEOF bool) (int, []byte, error) {
	start := 0
	for start < len(data) && !isIdentStart(data[start]) {
		start++
	}

	for i := start; i < len(data); i++ {
		if !isIdentByte(data[i]) {
			return i, data[start:i], nil
		}
	}

	// Ran off the end mid-run: emit only if no more input can arrive.
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}

	return start, nil, nil
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}
