package identity

import (
	"strings"
	"testing"
)

func TestJobUID_Deterministic(t *testing.T) {
	a := JobUID("greenhouse", "acme", "123")
	b := JobUID("greenhouse", "acme", "123")
	if a != b {
		t.Fatalf("expected identical uids, got %s vs %s", a, b)
	}
	if len(a) != 40 {
		t.Fatalf("expected 40 hex chars, got %d", len(a))
	}
	if a != strings.ToLower(a) {
		t.Fatalf("expected lowercase hex, got %s", a)
	}
}

func TestJobUID_DistinctTuples(t *testing.T) {
	tuples := [][3]string{
		{"greenhouse", "acme", "123"},
		{"lever", "acme", "123"},
		{"greenhouse", "globex", "123"},
		{"greenhouse", "acme", "124"},
		{"greenhouse", "acme:globex", "123"},
	}

	seen := map[string][3]string{}
	for _, tu := range tuples {
		uid := JobUID(tu[0], tu[1], tu[2])
		if prev, ok := seen[uid]; ok {
			t.Fatalf("uid collision between %v and %v", prev, tu)
		}
		seen[uid] = tu
	}
}

func TestContentHash_FieldBoundaries(t *testing.T) {
	// "ab"+"c" must not hash equal to "a"+"bc".
	if ContentHash("ab", "c") == ContentHash("a", "bc") {
		t.Fatalf("field boundary not preserved")
	}
	if ContentHash("x", "y") != ContentHash(" x ", "y") {
		t.Fatalf("expected surrounding whitespace to be ignored")
	}
	if len(ContentHash("a")) != 64 {
		t.Fatalf("expected sha256 hex length")
	}
}

func TestFingerprint(t *testing.T) {
	f1, err := Fingerprint(strings.NewReader("curriculum text"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	f2, _ := Fingerprint(strings.NewReader("curriculum text"))
	if f1 != f2 {
		t.Fatalf("fingerprint not deterministic")
	}
	f3, _ := Fingerprint(strings.NewReader("different text"))
	if f1 == f3 {
		t.Fatalf("distinct material must not share a fingerprint")
	}
}
