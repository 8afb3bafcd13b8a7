package core

// render.go is the boundary to the external document-rendering step.
//
// Saving a workbook writes formula text but not formula results; opening
// and re-saving it through a spreadsheet application forces recalculation
// and caches the computed values in the file. That step is slow, external
// and can be unavailable, so it is modeled as an injected port with an
// explicit timeout. The stored blob is only ever replaced with a
// successfully rendered result.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Renderer recalculates formula values inside serialized workbook bytes and
// returns the re-saved bytes. Implementations must treat the call as
// blocking and honor ctx cancellation.
type Renderer interface {
	Render(ctx context.Context, blob []byte, name string) ([]byte, error)
}

// PassthroughRenderer returns the bytes unchanged. Used when no rendering
// tool is installed: formula text is still correct, only cached results go
// stale until the document is next opened in a spreadsheet application.
type PassthroughRenderer struct{}

func (PassthroughRenderer) Render(_ context.Context, blob []byte, _ string) ([]byte, error) {
	return blob, nil
}

// LibreOfficeRenderer shells out to a headless LibreOffice to open-close the
// workbook: convert to ODS (which triggers recalculation) and back to xlsx.
type LibreOfficeRenderer struct {
	// Binary is the LibreOffice executable (default "libreoffice").
	Binary string
	// Timeout bounds the two conversions together. Zero means no limit.
	Timeout time.Duration
}

func (r *LibreOfficeRenderer) Render(ctx context.Context, blob []byte, name string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	binary := r.Binary
	if binary == "" {
		binary = "libreoffice"
	}

	dir, err := os.MkdirTemp("", "render-*")
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	defer os.RemoveAll(dir)

	inputPath := filepath.Join(dir, "temp-"+filepath.Base(name))
	if err := os.WriteFile(inputPath, blob, 0o600); err != nil {
		return nil, &RenderError{Err: err}
	}

	logger := slog.With("document", name)
	logger.Info("render document - begin")

	// ODS round trip: the first conversion recalculates and caches formula
	// results, the second restores the xlsx container under the same name.
	if err := runConvert(ctx, binary, "--calc", "ods", inputPath, dir); err != nil {
		logger.Error("render document - error", "error", err)
		return nil, &RenderError{Err: err}
	}
	odsPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".ods"
	if err := runConvert(ctx, binary, "", "xlsx", odsPath, dir); err != nil {
		logger.Error("render document - error", "error", err)
		return nil, &RenderError{Err: err}
	}

	rendered, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	logger.Info("render document - complete")
	return rendered, nil
}

func runConvert(ctx context.Context, binary, mode, target, input, outDir string) error {
	args := []string{"--headless"}
	if mode != "" {
		args = append(args, mode)
	}
	args = append(args, "--convert-to", target, input, "--outdir", outDir)

	cmd := exec.CommandContext(ctx, binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", binary, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}
