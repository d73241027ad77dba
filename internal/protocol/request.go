package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// Version is the protocol identifier carried on every response status line.
	Version = "SIMPLENET/1.0"

	DefaultContentType = "text/smd"
	DefaultDocExt      = ".smd"

	MaxPathBytes    = 256
	MaxRequestBytes = 1024
)

// forbiddenSequences are rejected anywhere in a request path.
var forbiddenSequences = []string{"..", "<", ">", "|", "*", "?", `"`}

// WriteRequest frames path with the blank-line terminator and writes it to w.
func WriteRequest(w io.Writer, path string) error {
	if _, err := io.WriteString(w, path+"\r\n\r\n"); err != nil {
		return fmt.Errorf("protocol: write request: %w", err)
	}
	return nil
}

// ReadRequest accumulates request bytes from r until a blank-line
// terminator arrives, maxBytes is reached, or the peer closes the
// stream with data already buffered. maxBytes <= 0 uses MaxRequestBytes.
func ReadRequest(r io.Reader, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = MaxRequestBytes
	}
	buf := make([]byte, 0, 256)
	chunk := make([]byte, 256)
	for {
		if hasTerminator(buf) || len(buf) >= maxBytes {
			return buf, nil
		}
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if len(buf) > maxBytes {
				buf = buf[:maxBytes]
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				return buf, nil
			}
			return buf, err
		}
	}
}

func hasTerminator(buf []byte) bool {
	return bytes.Contains(buf, []byte("\r\n\r\n")) || bytes.Contains(buf, []byte("\n\n"))
}

// ParsePath extracts and validates the request path from raw request
// bytes. Only the first line participates; surrounding whitespace is
// stripped before validation.
func ParsePath(raw []byte) (string, error) {
	line := raw
	if i := bytes.IndexAny(raw, "\r\n"); i >= 0 {
		line = raw[:i]
	}
	path := strings.TrimSpace(string(line))
	if path == "" {
		return "", ErrEmptyPath
	}
	if len(path) > MaxPathBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrPathTooLong, len(path))
	}
	for _, seq := range forbiddenSequences {
		if strings.Contains(path, seq) {
			return "", fmt.Errorf("%w: %q", ErrForbiddenPath, seq)
		}
	}
	return path, nil
}
