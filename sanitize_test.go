package mdlive

import (
	"strings"
	"testing"
)

func TestSanitizerDropsScriptAndStyle(t *testing.T) {
	s := newAllowlistSanitizer(nil, nil)
	out, err := s.Sanitize(`<p>ok</p><script>alert(1)</script><style>p{}</style>`)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if strings.Contains(out, "script") || strings.Contains(out, "alert") || strings.Contains(out, "style") {
		t.Fatalf("dangerous element survived: %q", out)
	}
	if !strings.Contains(out, "<p>ok</p>") {
		t.Fatalf("allowed content dropped: %q", out)
	}
}

func TestSanitizerStripsEventHandlersAndBadURLs(t *testing.T) {
	s := newAllowlistSanitizer(nil, nil)
	out, err := s.Sanitize(`<a href="javascript:evil()" onclick="evil()">x</a><a href="https://pkt.systems">y</a>`)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if strings.Contains(out, "javascript") || strings.Contains(out, "onclick") {
		t.Fatalf("unsafe attribute survived: %q", out)
	}
	if !strings.Contains(out, `href="https://pkt.systems"`) {
		t.Fatalf("safe href dropped: %q", out)
	}
}

func TestSanitizerPassesStructuralMarkers(t *testing.T) {
	s := newAllowlistSanitizer(nil, nil)
	in := `<div data-mdl-fp="abc123" data-mdl-state="pending" data-mdl-src="graph TD;">x</div>`
	out, err := s.Sanitize(in)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	for _, want := range []string{attrFingerprint, attrState, attrSource} {
		if !strings.Contains(out, want) {
			t.Fatalf("structural marker %s stripped: %q", want, out)
		}
	}
}

func TestSanitizerHoistsUnknownElements(t *testing.T) {
	s := newAllowlistSanitizer(nil, nil)
	out, err := s.Sanitize(`<p><custom>inner</custom></p>`)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if strings.Contains(out, "custom") {
		t.Fatalf("unknown element survived: %q", out)
	}
	if !strings.Contains(out, "inner") {
		t.Fatalf("unknown element content lost: %q", out)
	}
}

func TestSanitizerExtraAllowances(t *testing.T) {
	s := newAllowlistSanitizer([]string{"kbd"}, []string{"lang"})
	out, err := s.Sanitize(`<kbd lang="en">q</kbd>`)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if !strings.Contains(out, "<kbd") || !strings.Contains(out, `lang="en"`) {
		t.Fatalf("extra allowance not honored: %q", out)
	}
}
