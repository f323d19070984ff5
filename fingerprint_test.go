package mdlive

import "testing"

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("graph TD;\nA-->B;")
	b := Fingerprint("graph TD;\nA-->B;")
	if a != b {
		t.Fatalf("identical content, different fingerprints: %q %q", a, b)
	}
	if len(a) != fingerprintLen {
		t.Fatalf("fingerprint length %d, want %d", len(a), fingerprintLen)
	}
}

func TestFingerprintDistinguishesContent(t *testing.T) {
	if Fingerprint("graph TD;") == Fingerprint("graph LR;") {
		t.Fatalf("different content, same fingerprint")
	}
}
