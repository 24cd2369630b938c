// Command blindmarkctl embeds, extracts, and scans blind watermarks across
// archives of images, JSON, VAJ, and VMI assets.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/blindmarkctl/blindmark/internal/blinderr"
	"github.com/blindmarkctl/blindmark/internal/config"
	"github.com/blindmarkctl/blindmark/internal/jsonmark"
	"github.com/blindmarkctl/blindmark/internal/orchestrator"
	"github.com/blindmarkctl/blindmark/internal/spreadsheet"
	"github.com/blindmarkctl/blindmark/internal/watermark"
)

// version is set at build time via -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-version") {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)})))
	slog.Info("blindmarkctl", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "embed":
		err = runEmbed(ctx, cfg, os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	case "scan":
		err = runScan(cfg, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("fatal", "error", blinderr.Flatten(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: blindmarkctl <embed|extract|scan> [flags]")
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runEmbed(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	archivePath := fs.String("archive", "", "path to the source archive (.zip/.var/.7z)")
	outputDir := fs.String("output", "", "base output directory (defaults to the archive's directory)")
	watermarkText := fs.String("watermark", "", "watermark text (mutually exclusive with -spreadsheet)")
	spreadsheetPath := fs.String("spreadsheet", "", "xlsx file whose column A lists one watermark per row, for batch runs")
	mode := fs.String("mode", "md5", "watermark encoding: md5|plaintext|aes")
	aesKey := fs.String("aes-key", "", "passphrase for -mode aes")
	obfuscate := fs.Bool("obfuscate", false, "camouflage the JSON watermark field name")
	watermarkKey := fs.String("key", "", "JSON field name used when -obfuscate is false")
	images := fs.Bool("images", true, "watermark image assets")
	jsonFiles := fs.Bool("json", true, "watermark .json assets")
	vaj := fs.Bool("vaj", true, "watermark .vaj assets")
	vmi := fs.Bool("vmi", true, "watermark .vmi assets")
	strength := fs.Float64("strength", 1.0, "embedding strength, must be within [0.1, 1.0]; the QIM steps are fixed, so it does not change the output")
	fastMode := fs.Bool("fast", false, "restrict image embedding to a top-left ROI for large images")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *archivePath == "" {
		return blinderr.New(blinderr.InvalidConfig, "-archive is required")
	}

	watermarks, perFile, err := resolveWatermarks(*watermarkText, *spreadsheetPath)
	if err != nil {
		return err
	}

	wmMode, err := parseMode(*mode)
	if err != nil {
		return err
	}
	if wmMode == jsonmark.ModeAES && *aesKey == "" {
		return blinderr.New(blinderr.InvalidConfig, "-aes-key is required for -mode aes")
	}

	key := *watermarkKey
	if key == "" {
		key = cfg.DefaultWatermarkKey
	}

	result, err := orchestrator.ProcessArchive(ctx, orchestrator.Options{
		ArchivePath:       *archivePath,
		OutputDir:         *outputDir,
		Watermarks:        watermarks,
		PerFileWatermarks: perFile,
		ProcessImages:     *images,
		ProcessJSON:   *jsonFiles,
		ProcessVAJ:    *vaj,
		ProcessVMI:    *vmi,
		Obfuscate:     *obfuscate,
		WatermarkMode: wmMode,
		WatermarkKey:  key,
		AESKey:        *aesKey,
		Strength:      *strength,
		FastMode:      *fastMode,
		WorkerCount:   cfg.WorkerCount,
		TempDir:       cfg.TempDir,
		ZipLevel:      cfg.ZipDeflateLevel,
	})
	if err != nil {
		return err
	}

	slog.Info("embed complete",
		slog.String("output", result.OutputPath),
		slog.Int("images", result.Scan.ImageCount),
		slog.Int("json", result.Scan.JSONCount),
		slog.Int("vaj", result.Scan.VAJCount),
		slog.Int("vmi", result.Scan.VMICount),
	)
	fmt.Println(result.OutputPath)
	return nil
}

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	imagePath := fs.String("image", "", "path to a watermarked PNG")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *imagePath == "" {
		return blinderr.New(blinderr.InvalidConfig, "-image is required")
	}

	f, err := os.Open(*imagePath)
	if err != nil {
		return blinderr.Wrap(blinderr.IO, err, "open image")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return blinderr.Wrap(blinderr.UnsupportedImage, err, "decode image")
	}

	text, ok, err := watermark.ExtractText(img)
	if err != nil {
		return blinderr.Wrap(blinderr.ExtractionFailed, err, "extract watermark")
	}
	if !ok {
		return blinderr.New(blinderr.ExtractionFailed, "no recognizable watermark found")
	}

	fmt.Println(text)
	return nil
}

func runScan(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	archivePath := fs.String("archive", "", "path to the archive to scan")
	aesKey := fs.String("aes-key", "", "passphrase to decrypt AES-mode watermarks, if any")
	scanImages := fs.Bool("images", true, "also scan PNG images for a blind watermark")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *archivePath == "" {
		return blinderr.New(blinderr.InvalidConfig, "-archive is required")
	}

	result, err := orchestrator.ScanArchive(orchestrator.ScanOptions{
		ArchivePath: *archivePath,
		AESKey:      *aesKey,
		ScanImages:  *scanImages,
		TempDir:     cfg.TempDir,
		ZipLevel:    cfg.ZipDeflateLevel,
	})
	if err != nil {
		return err
	}

	for _, f := range result.JSONFindings {
		fmt.Printf("%s\t%s\t%s\tdecrypted=%v\n", f.File, f.Mode, f.Value, f.Decrypted)
	}
	for _, f := range result.ImageFindings {
		fmt.Printf("%s\timage\t%s\n", f.File, f.Text)
	}
	slog.Info("scan complete",
		slog.Int("json_findings", len(result.JSONFindings)),
		slog.Int("image_findings", len(result.ImageFindings)),
		slog.Int("scanned_png_count", result.ScannedPNGCount),
	)
	return nil
}

// resolveWatermarks returns either the single text watermark or the
// column-A contents of the spreadsheet, whichever was given; exactly one
// must be provided. perFile is true when the watermarks came from a
// spreadsheet, selecting the images[i]/watermarks[i] mapped mode instead
// of the uniform one-archive-per-watermark mode a single -watermark
// string still produces.
func resolveWatermarks(text, spreadsheetPath string) (watermarks []string, perFile bool, err error) {
	text = strings.TrimSpace(text)
	spreadsheetPath = strings.TrimSpace(spreadsheetPath)

	switch {
	case text != "" && spreadsheetPath != "":
		return nil, false, blinderr.New(blinderr.InvalidConfig, "-watermark and -spreadsheet are mutually exclusive")
	case text != "":
		return []string{text}, false, nil
	case spreadsheetPath != "":
		watermarks, err := spreadsheet.ReadWatermarks(spreadsheetPath)
		if err != nil {
			return nil, false, err
		}
		if len(watermarks) == 0 {
			return nil, false, blinderr.New(blinderr.InvalidConfig, "spreadsheet contains no watermark values")
		}
		return watermarks, true, nil
	default:
		return nil, false, blinderr.New(blinderr.InvalidConfig, "one of -watermark or -spreadsheet is required")
	}
}

func parseMode(name string) (jsonmark.Mode, error) {
	switch name {
	case "md5":
		return jsonmark.ModeMD5, nil
	case "plaintext":
		return jsonmark.ModePlaintext, nil
	case "aes":
		return jsonmark.ModeAES, nil
	default:
		return "", blinderr.New(blinderr.InvalidConfig, "unknown -mode "+name+" (want md5|plaintext|aes)")
	}
}
