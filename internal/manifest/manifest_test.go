package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"partforge/internal/fsentry"
	"partforge/internal/partition"
)

func buildCollection() *fsentry.Collection {
	col := fsentry.NewCollection(0)
	col.Append(fsentry.New("/a/f1", 10, false))
	col.Append(fsentry.New("/a/dir", 0, true))
	return col
}

func TestEmitPartitionTemplatedFormat(t *testing.T) {
	col := buildCollection()
	p := partition.New(0, 0)
	p.Add(0, 10)
	p.Add(1, 0)

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")

	e := &Emitter{Template: outPath, AddSlash: true}
	if err := e.EmitPartition(p, col); err != nil {
		t.Fatalf("EmitPartition: %v", err)
	}

	data, err := os.ReadFile(outPath + ".0")
	if err != nil {
		t.Fatalf("read manifest file: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), string(data))
	}
	if lines[0] != "/a/f1" {
		t.Errorf("line 0 = %q, want /a/f1", lines[0])
	}
	if lines[1] != "/a/dir/" {
		t.Errorf("line 1 = %q, want /a/dir/ (add_slash)", lines[1])
	}
}

func TestSingleDetection(t *testing.T) {
	cases := []struct {
		tpl  string
		want bool
	}{
		{"", true},
		{"-", true},
		{"/tmp/manifest", false},
	}
	for _, c := range cases {
		e := &Emitter{Template: c.tpl}
		if got := e.Single(); got != c.want {
			t.Errorf("Single() for template %q = %v, want %v", c.tpl, got, c.want)
		}
	}
}

func TestEmitPartitionNoAddSlash(t *testing.T) {
	col := buildCollection()
	p := partition.New(0, 0)
	p.Add(1, 0)

	dir := t.TempDir()
	tpl := filepath.Join(dir, "m")
	e := &Emitter{Template: tpl}
	if err := e.EmitPartition(p, col); err != nil {
		t.Fatalf("EmitPartition: %v", err)
	}
	data, err := os.ReadFile(tpl + ".0")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimRight(string(data), "\n") != "/a/dir" {
		t.Fatalf("got %q, want /a/dir (no trailing slash)", string(data))
	}
}
