package archivefmt_test

import (
	"path/filepath"
	"testing"

	"github.com/blindmarkctl/blindmark/internal/archivefmt"
)

func TestSevenZipHandlerSupports(t *testing.T) {
	h := archivefmt.NewSevenZipHandler()
	if !h.Supports("archive.7z") {
		t.Fatal("expected .7z to be supported")
	}
	if !h.Supports("ARCHIVE.7Z") {
		t.Fatal("expected case-insensitive match")
	}
	if h.Supports("archive.zip") {
		t.Fatal(".zip should not be supported by the 7z handler")
	}
}

func TestSevenZipHandlerCreateUnsupported(t *testing.T) {
	h := archivefmt.NewSevenZipHandler()
	err := h.Create(t.TempDir(), filepath.Join(t.TempDir(), "out.7z"))
	if err == nil {
		t.Fatal("expected Create to report unsupported")
	}
}
