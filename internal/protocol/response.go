package protocol

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Response is one framed SimpleNet reply.
type Response struct {
	Status      Status
	Message     string
	ContentType string
	Content     []byte
}

// NewResponse builds a success response carrying content.
func NewResponse(content []byte) *Response {
	return &Response{
		Status:      StatusOK,
		Message:     StatusOK.Text(),
		ContentType: DefaultContentType,
		Content:     content,
	}
}

// ErrorResponse builds an error response. The detail travels in the
// body so legacy clients still display something useful.
func ErrorResponse(status Status, detail string) *Response {
	return &Response{
		Status:      status,
		Message:     status.Text(),
		ContentType: DefaultContentType,
		Content:     []byte(detail),
	}
}

// EncodeResponse frames resp for the wire.
func EncodeResponse(resp *Response) []byte {
	ct := resp.ContentType
	if ct == "" {
		ct = DefaultContentType
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %d %s\r\n", Version, resp.Status, resp.Message)
	fmt.Fprintf(&b, "Content-Type: %s\r\n", ct)
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(resp.Content))
	b.WriteString("\r\n")
	b.Write(resp.Content)
	return b.Bytes()
}

// WriteResponse frames resp and writes it to w.
func WriteResponse(w io.Writer, resp *Response) error {
	if _, err := w.Write(EncodeResponse(resp)); err != nil {
		return fmt.Errorf("protocol: write response: %w", err)
	}
	return nil
}

// DecodeResponse interprets raw response bytes. Payloads without a
// recognizable header block decode as a legacy body with an implied
// success status, so DecodeResponse never fails.
func DecodeResponse(raw []byte) *Response {
	header, body, ok := splitHeaderBody(raw)
	if !ok {
		return legacyResponse(raw)
	}
	lines := strings.Split(string(header), "\n")
	status, message, ok := parseStatusLine(strings.TrimRight(lines[0], "\r"))
	if !ok {
		return legacyResponse(raw)
	}
	resp := &Response{
		Status:      status,
		Message:     message,
		ContentType: DefaultContentType,
		Content:     body,
	}
	for _, line := range lines[1:] {
		name, value, found := strings.Cut(strings.TrimRight(line, "\r"), ":")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Type") {
			if v := strings.TrimSpace(value); v != "" {
				resp.ContentType = v
			}
		}
	}
	return resp
}

// splitHeaderBody splits on the first CRLF blank line, falling back to
// a bare LF blank line for relaxed peers.
func splitHeaderBody(raw []byte) (header, body []byte, ok bool) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return raw[:i], raw[i+4:], true
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i], raw[i+2:], true
	}
	return nil, nil, false
}

func parseStatusLine(line string) (Status, string, bool) {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 || fields[0] != Version {
		return 0, "", false
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil || !Status(code).Known() {
		return 0, "", false
	}
	message := ""
	if len(fields) == 3 {
		message = fields[2]
	}
	return Status(code), message, true
}

func legacyResponse(raw []byte) *Response {
	return &Response{
		Status:      StatusOK,
		Message:     StatusOK.Text(),
		ContentType: DefaultContentType,
		Content:     raw,
	}
}
