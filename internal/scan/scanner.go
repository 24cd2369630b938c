// Package scan recursively inventories an extracted archive, sorting
// results by archive-relative path so image N always lines up with row N
// of a spreadsheet watermark list (spec.md §6).
package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blindmarkctl/blindmark/internal/blinderr"
)

// imageExtensions are the formats the watermark embedder understands.
var imageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true,
}

// jsonFamilyExtensions are syntactically-JSON files eligible for
// jsonmark injection, per spec.md's domain-variant extensions.
var jsonFamilyExtensions = map[string]bool{
	"json": true, "vaj": true, "vmi": true,
}

// File is one file found under an archive root.
type File struct {
	// RelativePath is archive-relative, using forward slashes regardless
	// of host OS, so sort order and output are platform-independent.
	RelativePath string
	AbsolutePath string
}

// Summary is the per-category file count produced by a scan, mirroring
// the event emitted once scanning completes.
type Summary struct {
	JSONCount  int
	VAJCount   int
	VMICount   int
	ImageCount int
}

// Result is the full inventory of one archive extraction.
type Result struct {
	Images []File
	JSON   []File
	VAJ    []File
	VMI    []File
}

// Summary reduces a Result to its per-category counts.
func (r Result) Summary() Summary {
	return Summary{
		JSONCount:  len(r.JSON),
		VAJCount:   len(r.VAJ),
		VMICount:   len(r.VMI),
		ImageCount: len(r.Images),
	}
}

// Scan walks root recursively and classifies every regular file by
// extension. Within each category, files are sorted by RelativePath —
// this ordering is a stable, testable property that the spreadsheet
// batch mode depends on for its sequential row-to-image mapping.
func Scan(root string) (Result, error) {
	var result Result

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		file := File{RelativePath: rel, AbsolutePath: path}

		switch {
		case imageExtensions[ext]:
			result.Images = append(result.Images, file)
		case ext == "json":
			result.JSON = append(result.JSON, file)
		case ext == "vaj":
			result.VAJ = append(result.VAJ, file)
		case ext == "vmi":
			result.VMI = append(result.VMI, file)
		}
		return nil
	})
	if err != nil {
		return Result{}, blinderr.Wrap(blinderr.IO, err, "scan archive contents")
	}

	sortByRelativePath(result.Images)
	sortByRelativePath(result.JSON)
	sortByRelativePath(result.VAJ)
	sortByRelativePath(result.VMI)

	return result, nil
}

func sortByRelativePath(files []File) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})
}

// IsImage reports whether path has one of the supported image extensions.
func IsImage(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return imageExtensions[ext]
}

// IsJSONFamily reports whether path is plain JSON or one of its
// syntactically-identical domain variants (.vaj, .vmi).
func IsJSONFamily(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return jsonFamilyExtensions[ext]
}
