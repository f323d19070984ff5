package mdlive

import "strings"

// maxAnchorLen caps the suffix used to locate a block in the source. Long
// enough to be likely-unique, short enough to bound the scan.
const maxAnchorLen = 80

// fenceClosed reports whether a fenced block whose extracted content is
// content has actually been closed in the full accumulated source. The
// structural parser will happily hand over a block body whose closing marker
// has not arrived yet; anchoring on the live source is what tells a genuine
// close apart from a parser guess at end of streaming input.
//
// The trimmed content's bounded suffix is located at its last occurrence in
// source, and the text immediately following must be optional whitespace and
// a closing run of the same marker family as the opener, at least as long as
// the opening run. Empty content or a missing occurrence count as unclosed.
func fenceClosed(content, source string) bool {
	anchor := strings.TrimSpace(content)
	if anchor == "" {
		return false
	}
	if len(anchor) > maxAnchorLen {
		anchor = anchor[len(anchor)-maxAnchorLen:]
	}
	idx := strings.LastIndex(source, anchor)
	if idx < 0 {
		return false
	}
	marker, markerLen := openingMarker(source[:idx])
	if marker == 0 {
		return false
	}
	rest := strings.TrimLeft(source[idx+len(anchor):], " \t\r\n")
	run := 0
	for run < len(rest) && rest[run] == marker {
		run++
	}
	return run >= markerLen
}

// openingMarker scans backward from the anchored content for the fence line
// that opened the block, so a backtick block cannot be closed by a tilde run
// or by a shorter marker run than it was opened with.
func openingMarker(prefix string) (byte, int) {
	for len(prefix) > 0 {
		nl := strings.LastIndexByte(prefix, '\n')
		if m, n := fenceOpenMarker(prefix[nl+1:]); m != 0 {
			return m, n
		}
		if nl < 0 {
			break
		}
		prefix = prefix[:nl]
	}
	return 0, 0
}
