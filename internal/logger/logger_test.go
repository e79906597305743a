package logger

import "testing"

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := New("debug", format)
		if err != nil {
			t.Fatalf("format %q: unexpected error: %v", format, err)
		}
		l.Debug("hello")
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New("loud", "json"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
