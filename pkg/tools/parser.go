package tools

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultServerName = "local"
	openTag           = "<tool>"
	closeTag          = "</tool>"

	// maxToolCallBytes caps the input handed to ParseToolCall.
	maxToolCallBytes = 1 << 20
	snippetLen       = 200
)

// entityPrefix recognises an ampersand that already starts a valid XML entity.
var entityPrefix = regexp.MustCompile(`^&(?:amp|lt|gt|quot|apos|#[0-9]+|#x[0-9a-fA-F]+);`)

// locateToolCall returns the byte span of the first complete <tool> element.
func locateToolCall(text string) (start, end int, ok bool) {
	start = strings.Index(text, openTag)
	if start < 0 {
		return 0, 0, false
	}
	closeAt := strings.Index(text[start+len(openTag):], closeTag)
	if closeAt < 0 {
		return 0, 0, false
	}
	return start, start + len(openTag) + closeAt + len(closeTag), true
}

// ParseToolCall decodes the first <tool> element in text. The returned string
// is whatever surrounded the call, joined and trimmed, so callers can show
// commentary that came with it.
func ParseToolCall(text string) (*ToolCall, string, error) {
	if len(text) > maxToolCallBytes {
		return nil, text, fmt.Errorf("input of %d bytes is over the %d byte tool call limit", len(text), maxToolCallBytes)
	}

	start, end, ok := locateToolCall(text)
	if !ok {
		return nil, text, fmt.Errorf("expected a <tool>...</tool> element")
	}
	element := text[start:end]

	var call ToolCall
	if err := UnmarshalXMLWithFallback([]byte(element), &call); err != nil {
		return nil, text, fmt.Errorf("malformed tool call: %w (near %q)", err, truncate(element, snippetLen))
	}

	call.ToolName = strings.TrimSpace(call.ToolName)
	if call.ToolName == "" {
		return nil, text, fmt.Errorf("tool call has an empty <tool_name>")
	}
	if call.ServerName == "" {
		call.ServerName = defaultServerName
	}

	return &call, strings.TrimSpace(text[:start] + text[end:]), nil
}

// HasToolCall reports whether text holds a complete <tool> element.
func HasToolCall(text string) bool {
	_, _, ok := locateToolCall(text)
	return ok
}

// UnmarshalXMLWithFallback decodes data into v. Handle selectors and titles
// often carry a bare "&", so a failed decode is retried once with those
// ampersands escaped.
func UnmarshalXMLWithFallback(data []byte, v interface{}) error {
	if err := xml.Unmarshal(data, v); err == nil {
		return nil
	}
	return xml.Unmarshal(escapeUnescapedAmpersands(data), v)
}

// escapeUnescapedAmpersands rewrites every "&" that does not begin an entity
// as "&amp;".
func escapeUnescapedAmpersands(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data) + 16)
	for i, c := range data {
		if c == '&' && !entityPrefix.Match(data[i:]) {
			out.WriteString("&amp;")
			continue
		}
		out.WriteByte(c)
	}
	return out.Bytes()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
