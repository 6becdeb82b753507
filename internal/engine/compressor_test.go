package engine

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestCompressor_Compress(t *testing.T) {
	c := NewCompressor()
	defer c.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "core.log.3")
	content := bytes.Repeat([]byte("log line payload\n"), 100)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	done, err := c.Compress(path)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !done {
		t.Fatal("Compress reported no-op for an existing file")
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("source file still present after compression")
	}

	f, err := os.Open(path + CompressedSuffix)
	if err != nil {
		t.Fatalf("compressed file missing: %v", err)
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	got, err := io.ReadAll(gr)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("round-trip content mismatch")
	}
}

func TestCompressor_MissingSourceIsNoop(t *testing.T) {
	c := NewCompressor()
	defer c.Close()

	done, err := c.Compress(filepath.Join(t.TempDir(), "gone.log.1"))
	if err != nil {
		t.Errorf("missing source should be a no-op, got %v", err)
	}
	if done {
		t.Error("missing source counted as compressed")
	}
}

func TestCompressor_SubmitAfterClose(t *testing.T) {
	c := NewCompressor()
	c.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "all.log.2")
	if err := os.WriteFile(path, []byte("retired segment\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// Must drop the job, not panic on the closed queue.
	c.Submit(path)
	c.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("dropped job should leave the source untouched: %v", err)
	}
	if _, err := os.Stat(path + CompressedSuffix); err == nil {
		t.Error("job compressed after Close")
	}
}

func TestCompressor_SubmitDrainsOnClose(t *testing.T) {
	c := NewCompressor()

	dir := t.TempDir()
	path := filepath.Join(dir, "all.log.5")
	if err := os.WriteFile(path, []byte("retired segment\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c.Submit(path)
	c.Close() // must drain the queue before returning

	if _, err := os.Stat(path + CompressedSuffix); err != nil {
		t.Errorf("queued job not processed before Close returned: %v", err)
	}
}
