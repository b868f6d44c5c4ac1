package throttle

import (
	"bytes"
	"io"
	"testing"
)

func TestWrapLimiterUnlimitedReturnsSameWriter(t *testing.T) {
	var buf bytes.Buffer
	w := WrapLimiter(&buf, NewLimiter(0))
	if w != io.Writer(&buf) {
		t.Fatal("WrapLimiter with a nil limiter should return the original writer unchanged")
	}
}

func TestNewLimiterNilWhenUnlimited(t *testing.T) {
	if NewLimiter(0) != nil {
		t.Fatal("NewLimiter(0) should be nil")
	}
	if NewLimiter(-5) != nil {
		t.Fatal("NewLimiter(negative) should be nil")
	}
	if NewLimiter(100) == nil {
		t.Fatal("NewLimiter(100) should be non-nil")
	}
}

func TestWriteThroughUnlimited(t *testing.T) {
	var buf bytes.Buffer
	w := WrapLimiter(&buf, NewLimiter(0))
	n, err := w.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write = %d, %v; want 5, nil", n, err)
	}
	if buf.String() != "hello" {
		t.Fatalf("buf = %q, want %q", buf.String(), "hello")
	}
}

func TestWriteThrottledDeliversAllBytes(t *testing.T) {
	var buf bytes.Buffer
	// A generous rate so the test doesn't block; this exercises the chunk-
	// splitting path without asserting on timing.
	w := WrapLimiter(&buf, NewLimiter(1<<20))
	payload := bytes.Repeat([]byte("x"), chunkSize+100)
	n, err := w.Write(payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("Write returned %d, want %d", n, len(payload))
	}
	if buf.Len() != len(payload) {
		t.Fatalf("buf.Len() = %d, want %d", buf.Len(), len(payload))
	}
}

func TestWrapLimiterSharedAcrossWriters(t *testing.T) {
	lim := NewLimiter(1 << 20)
	var a, b bytes.Buffer
	wa := WrapLimiter(&a, lim)
	wb := WrapLimiter(&b, lim)
	if _, err := wa.Write([]byte("1")); err != nil {
		t.Fatal(err)
	}
	if _, err := wb.Write([]byte("2")); err != nil {
		t.Fatal(err)
	}
	if a.String() != "1" || b.String() != "2" {
		t.Fatalf("a=%q b=%q", a.String(), b.String())
	}
}
