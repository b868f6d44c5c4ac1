package hooks

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunEmptyCommandIsNoop(t *testing.T) {
	r := Runner{}
	if err := r.Run("", Env{}); err != nil {
		t.Fatalf("Run(\"\", ...) = %v, want nil", err)
	}
}

func TestRunSetsEnv(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	cmd := "env | grep ^FPART_ > " + out

	r := Runner{}
	if err := r.Run(cmd, Env{PartNumber: 2, PartSize: 4096, PartFilename: "x.2", PartNumFiles: 7, PartErrno: 0}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read hook output: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"FPART_PARTNUMBER=2",
		"FPART_PARTSIZE=4096",
		"FPART_PARTFILENAME=x.2",
		"FPART_PARTNUMFILES=7",
		"FPART_PARTERRNO=0",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("hook env missing %q, got:\n%s", want, text)
		}
	}
}

func TestRunNonzeroExitIsError(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := Runner{}
	if err := r.Run("exit 1", Env{}); err == nil {
		t.Fatal("expected error from nonzero exit")
	}
}
