package render

import (
	"bytes"
	"strings"
)

// headEnd returns the offset of the first </head> tag, or -1. Comments and
// the bodies of script, style and title elements are skipped.
func headEnd(doc []byte) int {
	i := 0
	for i < len(doc) {
		lt := bytes.IndexByte(doc[i:], '<')
		if lt < 0 {
			return -1
		}
		lt += i
		rest := doc[lt:]

		switch {
		case bytes.HasPrefix(rest, []byte("<!--")):
			n := bytes.Index(rest[4:], []byte("-->"))
			if n < 0 {
				return -1
			}
			i = lt + n + 4 + 3

		case isTagStart(rest, "script"), isTagStart(rest, "style"), isTagStart(rest, "title"):
			n := rawTextEnd(rest)
			if n < 0 {
				return -1
			}
			i = lt + n

		case isTagStart(rest, "/head"):
			return lt

		default:
			i = lt + 1
		}
	}
	return -1
}

// stripHead removes marker-tagged <meta> elements from the head, and <title>
// elements when titles is set. Comments and raw-text elements are copied
// verbatim so that markup quoted inside scripts is never mistaken for a tag.
func stripHead(head []byte, markers []string, titles bool) []byte {
	out := make([]byte, 0, len(head))
	i := 0
	for i < len(head) {
		lt := bytes.IndexByte(head[i:], '<')
		if lt < 0 {
			out = append(out, head[i:]...)
			break
		}
		lt += i
		out = append(out, head[i:lt]...)
		rest := head[lt:]

		switch {
		case bytes.HasPrefix(rest, []byte("<!--")):
			n := bytes.Index(rest[4:], []byte("-->"))
			if n < 0 {
				return append(out, rest...)
			}
			n += 4 + 3
			out = append(out, rest[:n]...)
			i = lt + n

		case isTagStart(rest, "script"), isTagStart(rest, "style"):
			n := rawTextEnd(rest)
			if n < 0 {
				return append(out, rest...)
			}
			out = append(out, rest[:n]...)
			i = lt + n

		case isTagStart(rest, "meta"):
			n := tagEnd(rest)
			if n < 0 {
				return append(out, rest...)
			}
			if !hasAnyAttr(rest[:n], markers) {
				out = append(out, rest[:n]...)
			}
			i = lt + n

		case isTagStart(rest, "title"):
			n := elementEnd(rest, "title")
			if n < 0 {
				return append(out, rest...)
			}
			if !titles {
				out = append(out, rest[:n]...)
			}
			i = lt + n

		default:
			out = append(out, '<')
			i = lt + 1
		}
	}
	return out
}

// indexFold returns the first ASCII case-insensitive index of pat in s.
func indexFold(s []byte, pat string) int {
	if pat == "" {
		return 0
	}
	first := pat[0]
	for i := 0; i+len(pat) <= len(s); {
		n := bytes.IndexByte(s[i:], first)
		if n < 0 {
			return -1
		}
		i += n
		if i+len(pat) > len(s) {
			return -1
		}
		if bytes.EqualFold(s[i:i+len(pat)], []byte(pat)) {
			return i
		}
		i++
	}
	return -1
}

// isTagStart reports whether b opens an element named name.
func isTagStart(b []byte, name string) bool {
	if len(b) < len(name)+2 || b[0] != '<' {
		return false
	}
	if !bytes.EqualFold(b[1:1+len(name)], []byte(name)) {
		return false
	}
	switch b[1+len(name)] {
	case ' ', '\t', '\n', '\r', '\f', '/', '>':
		return true
	}
	return false
}

// tagEnd returns the index just past the '>' closing the tag at b[0],
// skipping over quoted attribute values.
func tagEnd(b []byte) int {
	var quote byte
	for i := 1; i < len(b); i++ {
		c := b[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			if i > 0 && (b[i-1] == '=' || isSpace(b[i-1])) {
				quote = c
			}
		case c == '>':
			return i + 1
		}
	}
	return -1
}

// elementEnd returns the index just past the closing tag of the element
// opened at b[0].
func elementEnd(b []byte, name string) int {
	open := tagEnd(b)
	if open < 0 {
		return -1
	}
	closing := indexFold(b[open:], "</"+name)
	if closing < 0 {
		return -1
	}
	closing += open
	n := tagEnd(b[closing:])
	if n < 0 {
		return -1
	}
	return closing + n
}

func rawTextEnd(b []byte) int {
	for _, name := range []string{"script", "style", "title"} {
		if isTagStart(b, name) {
			return elementEnd(b, name)
		}
	}
	return -1
}

// hasAnyAttr reports whether the tag carries one of the named attributes.
func hasAnyAttr(tag []byte, names []string) bool {
	if len(names) == 0 {
		return false
	}
	for _, attr := range attrNames(tag) {
		for _, n := range names {
			if attr == n {
				return true
			}
		}
	}
	return false
}

// attrNames lists the lowercased attribute names of a start tag.
func attrNames(tag []byte) []string {
	var names []string
	i := 1
	for i < len(tag) && !isSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}
	for i < len(tag) {
		for i < len(tag) && (isSpace(tag[i]) || tag[i] == '/') {
			i++
		}
		if i >= len(tag) || tag[i] == '>' {
			break
		}
		start := i
		for i < len(tag) && !isSpace(tag[i]) && tag[i] != '=' && tag[i] != '>' && tag[i] != '/' {
			i++
		}
		names = append(names, strings.ToLower(string(tag[start:i])))
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] != '=' {
			continue
		}
		i++
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i < len(tag) && (tag[i] == '"' || tag[i] == '\'') {
			q := tag[i]
			i++
			for i < len(tag) && tag[i] != q {
				i++
			}
			i++
			continue
		}
		for i < len(tag) && !isSpace(tag[i]) && tag[i] != '>' {
			i++
		}
	}
	return names
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func normalizeAttr(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
