package batch_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/blindmarkctl/blindmark/internal/batch"
	"github.com/blindmarkctl/blindmark/internal/progress"
	"github.com/blindmarkctl/blindmark/internal/scan"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 37) % 256),
				G: uint8((y * 53) % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
}

func TestProcessImagesWatermarksPNGs(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	writePNG(t, filepath.Join(srcDir, "a.png"), 256, 256)
	writePNG(t, filepath.Join(srcDir, "b.png"), 256, 256)

	images := []scan.File{
		{RelativePath: "a.png", AbsolutePath: filepath.Join(srcDir, "a.png")},
		{RelativePath: "b.png", AbsolutePath: filepath.Join(srcDir, "b.png")},
	}

	n, err := batch.ProcessImages(context.Background(), images, outDir, batch.Options{
		WatermarkText: "TestMark",
		Strength:      1.0,
		WorkerCount:   2,
		BatchCurrent:  1,
		BatchTotal:    1,
	})
	if err != nil {
		t.Fatalf("ProcessImages: %v", err)
	}
	if n != 2 {
		t.Fatalf("processed count = %d, want 2", n)
	}

	for _, name := range []string{"a.png", "b.png"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected output %s to exist: %v", name, err)
		}
	}
}

func TestProcessImagesCopiesJPEGAsIs(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	jpegPath := filepath.Join(srcDir, "photo.jpg")
	if err := os.WriteFile(jpegPath, []byte("not really a jpeg but copied verbatim"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	images := []scan.File{{RelativePath: "photo.jpg", AbsolutePath: jpegPath}}

	n, err := batch.ProcessImages(context.Background(), images, outDir, batch.Options{
		WatermarkText: "TestMark",
		WorkerCount:   1,
	})
	if err != nil {
		t.Fatalf("ProcessImages: %v", err)
	}
	if n != 1 {
		t.Fatalf("processed count = %d, want 1", n)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "photo.jpg"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "not really a jpeg but copied verbatim" {
		t.Fatalf("jpeg content was modified: %q", got)
	}
}

func TestProcessImagesEmitsProgressEvents(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	writePNG(t, filepath.Join(srcDir, "a.png"), 256, 256)

	hub := progress.NewHub()
	ch, unsub := hub.Subscribe()
	defer unsub()

	images := []scan.File{{RelativePath: "a.png", AbsolutePath: filepath.Join(srcDir, "a.png")}}

	if _, err := batch.ProcessImages(context.Background(), images, outDir, batch.Options{
		WatermarkText: "X",
		Strength:      1.0,
		WorkerCount:   1,
		BatchCurrent:  1,
		BatchTotal:    1,
		Hub:           hub,
	}); err != nil {
		t.Fatalf("ProcessImages: %v", err)
	}

	sawDetail, sawProgress := false, false
	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			if ev.Kind == progress.KindDetail {
				sawDetail = true
			}
			if ev.Kind == progress.KindProgress {
				sawProgress = true
			}
		default:
		}
	}
	if !sawDetail || !sawProgress {
		t.Fatalf("expected both detail and progress events, sawDetail=%v sawProgress=%v", sawDetail, sawProgress)
	}
}
