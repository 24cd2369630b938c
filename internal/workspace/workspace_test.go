package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blindmarkctl/blindmark/internal/workspace"
)

func TestNewCreatesSubdirectories(t *testing.T) {
	ws, err := workspace.New(t.TempDir(), "test_archive")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ws.Close()

	for _, dir := range []string{ws.ExtractedPath(), ws.ProcessedPath(), ws.BasePath()} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist", dir)
		}
	}
}

func TestCopyProcessedPreservesSubdirs(t *testing.T) {
	ws, err := workspace.New(t.TempDir(), "test_copy")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ws.Close()

	nested := filepath.Join(ws.ExtractedPath(), "images", "photos")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "photo.jpg"), []byte("fake image data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := ws.CopyProcessed(
		filepath.Join("images", "photos", "photo.jpg"),
		filepath.Join("images", "photos", "photo.jpg"),
	); err != nil {
		t.Fatalf("CopyProcessed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(ws.ProcessedPath(), "images", "photos", "photo.jpg"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "fake image data" {
		t.Fatalf("content = %q", got)
	}
}

func TestWriteProcessedCreatesParents(t *testing.T) {
	ws, err := workspace.New(t.TempDir(), "test_write")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ws.Close()

	if err := ws.WriteProcessed(filepath.Join("data", "results", "output.bin"), []byte("nested write")); err != nil {
		t.Fatalf("WriteProcessed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ws.ProcessedPath(), "data", "results", "output.bin")); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
}

func TestSizeSumsFileBytes(t *testing.T) {
	ws, err := workspace.New(t.TempDir(), "test_size")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ws.Close()

	if err := os.WriteFile(filepath.Join(ws.ExtractedPath(), "file1.txt"), []byte("12345"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(ws.ExtractedPath(), "file2.txt"), []byte("1234567890"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	total, err := ws.ExtractedSize()
	if err != nil {
		t.Fatalf("ExtractedSize: %v", err)
	}
	if total != 15 {
		t.Fatalf("ExtractedSize = %d, want 15", total)
	}
}

func TestCloseRemovesWorkspace(t *testing.T) {
	ws, err := workspace.New(t.TempDir(), "test_cleanup")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	base := ws.BasePath()
	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(base); !os.IsNotExist(err) {
		t.Fatalf("expected workspace directory to be removed, stat err = %v", err)
	}
}
