package diagnostics

import "testing"

func TestCollectorTakeDrains(t *testing.T) {
	c := NewCollector()
	c.Add(Errorf("a.ts", Span{File: "a.ts", Line: 1, Col: 1}, "boom %d", 1))
	c.Add(Warnf("b.ts", Span{File: "b.ts"}, "careful"))

	if !c.HasErrors() {
		t.Fatalf("expected HasErrors true")
	}

	got := c.Take()
	if len(got) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(got))
	}
	if len(c.Take()) != 0 {
		t.Fatalf("expected collector drained after Take")
	}
	if c.HasErrors() {
		t.Fatalf("expected HasErrors false after drain")
	}
}

func TestDiagnosticErrorString(t *testing.T) {
	d := Errorf("mod", Span{File: "x.ts", Line: 3, Col: 5}, "bad thing")
	want := "error: x.ts:3:5: bad thing"
	if d.Error() != want {
		t.Fatalf("got %q want %q", d.Error(), want)
	}
}
