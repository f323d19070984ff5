package mdlive

import "strings"

const maxFrontMatterProbeBytes = 64 * 1024

var frontMatterDelims = map[string]bool{"---": true, "+++": true, ";;;": true}

// stripFrontMatter removes a leading front matter block (YAML ---, TOML +++
// or JSON ;;;) from the source. This is the whole-document form of a
// streaming probe: while the closing delimiter has not arrived and the lines
// seen so far still look like metadata, the text is withheld from rendering;
// at end of stream (eof) an unclosed block is treated as ordinary content.
// A delimited block whose body does not look like metadata is left alone.
func stripFrontMatter(src string, eof bool) string {
	opener, rest, found := strings.Cut(src, "\n")
	delim := strings.TrimRight(opener, " \t\r")
	if !frontMatterDelims[delim] {
		return src
	}
	if !found {
		if eof {
			return src
		}
		return ""
	}
	closer := delim
	body := rest
	for len(body) > 0 {
		line, next, more := strings.Cut(body, "\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == closer || (closer == "---" && trimmed == "...") {
			return next
		}
		if trimmed != "" && !looksLikeMetadata(trimmed) {
			return src
		}
		if !more {
			break
		}
		body = next
	}
	// opener seen, closer not yet: still streaming front matter
	if eof || len(src) > maxFrontMatterProbeBytes {
		return src
	}
	return ""
}

// looksLikeMetadata accepts the line shapes front matter bodies are made of:
// key: value, key = value, and JSON object fragments.
func looksLikeMetadata(line string) bool {
	if strings.ContainsAny(line, ":=") {
		return true
	}
	switch line[0] {
	case '{', '}', '[', ']', '"', '-':
		return true
	}
	return false
}
