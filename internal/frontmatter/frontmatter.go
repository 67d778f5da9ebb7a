// Package frontmatter parses and renders the metadata header block of
// vault documents.
package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// coreKeys are rendered first, in this order, before the remaining header
// keys (which follow alphabetically). They are also the only keys kept by
// the minimal fallback header.
var coreKeys = []string{"id", "space_id", "name", "type_key"}

// Split separates the header block (between leading --- delimiters) from
// the document body. Documents without a header yield a nil map and the
// full content as body. Invalid YAML inside the block is treated the same
// way: the document stays readable, nothing is lost.
func Split(data []byte) (map[string]any, string) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	block := rest[:idx]
	// Strip only the newline terminating the closing delimiter line; the
	// body beyond it is returned byte-for-byte, leading blank lines
	// included.
	after := string(rest[idx+1+len(delim):])
	after = strings.TrimPrefix(after, "\r")
	body := strings.TrimPrefix(after, "\n")

	var header map[string]any
	if err := yaml.Unmarshal(block, &header); err != nil {
		return nil, string(data)
	}
	return header, body
}

// Render serializes the header map into a delimited block. Scalars are
// quoted when they contain ':', a newline, a quote character, or leading
// or trailing space; list items additionally when they look like a
// wikilink token.
func Render(header map[string]any) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")

	written := make(map[string]struct{}, len(header))
	for _, k := range coreKeys {
		v, ok := header[k]
		if !ok {
			continue
		}
		if err := writeEntry(&buf, k, v); err != nil {
			return "", err
		}
		written[k] = struct{}{}
	}

	rest := make([]string, 0, len(header))
	for k := range header {
		if _, ok := written[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		if err := writeEntry(&buf, k, header[k]); err != nil {
			return "", err
		}
	}

	buf.WriteString(delim + "\n")
	return buf.String(), nil
}

// RenderSafe renders the header, falling back to a minimal block holding
// only the core identity keys when serialization fails. A malformed
// property value must never prevent a document from being written.
func RenderSafe(header map[string]any) string {
	out, err := Render(header)
	if err == nil {
		return out
	}
	minimal := make(map[string]any, len(coreKeys))
	for _, k := range coreKeys {
		if v, ok := header[k]; ok {
			minimal[k] = Coerce(v)
		}
	}
	out, err = Render(minimal)
	if err != nil {
		return delim + "\n" + delim + "\n"
	}
	return out
}

// Compose joins a rendered header and a body into full document content.
// The body is appended untouched, so Compose after Split reproduces it
// byte-for-byte.
func Compose(header map[string]any, body string) string {
	return RenderSafe(header) + body
}

func writeEntry(buf *bytes.Buffer, key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("frontmatter: empty key")
	}
	switch v := value.(type) {
	case nil:
		return nil // never emit explicit nulls
	case []any:
		items := make([]string, 0, len(v))
		for _, it := range v {
			items = append(items, Coerce(it))
		}
		writeList(buf, key, items)
	case []string:
		writeList(buf, key, v)
	default:
		buf.WriteString(key)
		buf.WriteString(": ")
		buf.WriteString(scalarString(v))
		buf.WriteString("\n")
	}
	return nil
}

func writeList(buf *bytes.Buffer, key string, items []string) {
	if len(items) == 0 {
		buf.WriteString(key + ": []\n")
		return
	}
	buf.WriteString(key + ":\n")
	for _, it := range items {
		buf.WriteString("  - ")
		if needsQuoting(it) || strings.Contains(it, "[[") {
			buf.WriteString(quote(it))
		} else {
			buf.WriteString(it)
		}
		buf.WriteString("\n")
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		if needsQuoting(t) {
			return quote(t)
		}
		if t == "" {
			return `""`
		}
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		s := Coerce(v)
		if needsQuoting(s) {
			return quote(s)
		}
		return s
	}
}

func needsQuoting(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, ":\n\"'") {
		return true
	}
	return s != strings.TrimSpace(s)
}

func quote(s string) string {
	escaped := strings.ReplaceAll(s, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	escaped = strings.ReplaceAll(escaped, "\n", "\\n")
	return "\"" + escaped + "\""
}
