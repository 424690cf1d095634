package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Converter renders uploaded presentation documents to PNG slides by shelling
// out to pdftoppm (PDF) and LibreOffice (PPT/PPTX, converted to PDF first)
type Converter struct {
	slidesDir    string
	sofficePath  string
	pdftoppmPath string
	dpi          int

	mu       sync.Mutex
	resolved map[string]string // probe results, keyed by binary name
}

// NewConverter creates a converter writing slide images into slidesDir.
// Explicit binary paths override platform probing; pass "" to probe.
func NewConverter(slidesDir, sofficePath, pdftoppmPath string, dpi int) (*Converter, error) {
	if err := os.MkdirAll(slidesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create slides directory: %w", err)
	}
	if dpi <= 0 {
		dpi = 110
	}
	return &Converter{
		slidesDir:    slidesDir,
		sofficePath:  sofficePath,
		pdftoppmPath: pdftoppmPath,
		dpi:          dpi,
		resolved:     make(map[string]string),
	}, nil
}

// SlidesDir returns the directory converted slide images are written to
func (c *Converter) SlidesDir() string {
	return c.slidesDir
}

// Convert renders the given document to PNG slides and returns their file
// names in page order. Results are cached per source path and modification
// time, so polling displays reuse the previous conversion.
func (c *Converter) Convert(ctx context.Context, docPath string) ([]string, error) {
	info, err := os.Stat(docPath)
	if err != nil {
		return nil, fmt.Errorf("presentation file not found: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	cacheKey := fmt.Sprintf("%s\n%d", docPath, info.ModTime().UnixNano())

	if names := c.cachedSlides(base, cacheKey); len(names) > 0 {
		log.Printf("Serving %d cached slides for %s", len(names), filepath.Base(docPath))
		return names, nil
	}
	c.clearSlides(base)

	pdfPath := docPath
	switch strings.ToLower(filepath.Ext(docPath)) {
	case ".pdf":
	case ".ppt", ".pptx":
		pdfPath, err = c.toPDF(ctx, docPath)
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(filepath.Dir(pdfPath))
	default:
		return nil, fmt.Errorf("unsupported presentation format: %s", filepath.Ext(docPath))
	}

	names, err := c.pdfToImages(ctx, pdfPath, base)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("presentation has no pages")
	}

	if err := c.writeMeta(base, cacheKey); err != nil {
		log.Printf("Warning: could not write conversion cache meta: %v", err)
	}
	log.Printf("Converted %s to %d slides", filepath.Base(docPath), len(names))
	return names, nil
}

// cachedSlides returns the previously converted slide names when the meta file
// still matches the source path and mtime
func (c *Converter) cachedSlides(base, cacheKey string) []string {
	data, err := os.ReadFile(c.metaPath(base))
	if err != nil || strings.TrimSpace(string(data)) != cacheKey {
		return nil
	}
	names, err := c.slideNames(base)
	if err != nil {
		return nil
	}
	return names
}

func (c *Converter) metaPath(base string) string {
	return filepath.Join(c.slidesDir, base+".meta")
}

// writeMeta records the conversion cache key atomically (temp file, then rename)
func (c *Converter) writeMeta(base, cacheKey string) error {
	tempPath := c.metaPath(base) + ".tmp"
	if err := os.WriteFile(tempPath, []byte(cacheKey), 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, c.metaPath(base))
}

func (c *Converter) clearSlides(base string) {
	matches, _ := filepath.Glob(filepath.Join(c.slidesDir, base+"-*.png"))
	for _, m := range matches {
		os.Remove(m)
	}
	os.Remove(c.metaPath(base))
}

// slideNames lists rendered pages for a document, sorted by page number
func (c *Converter) slideNames(base string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(c.slidesDir, base+"-*.png"))
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool {
		return pageNumber(matches[i]) < pageNumber(matches[j])
	})
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = filepath.Base(m)
	}
	return names, nil
}

// pageNumber extracts the numeric page suffix from "<base>-<n>.png"
func pageNumber(path string) int {
	name := strings.TrimSuffix(filepath.Base(path), ".png")
	idx := strings.LastIndex(name, "-")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(name[idx+1:])
	if err != nil {
		return 0
	}
	return n
}

// pdfToImages renders each PDF page to slidesDir/<base>-<n>.png via pdftoppm
func (c *Converter) pdfToImages(ctx context.Context, pdfPath, base string) ([]string, error) {
	bin, err := c.findBinary("pdftoppm", c.pdftoppmPath, pdftoppmCandidates())
	if err != nil {
		return nil, err
	}

	outPrefix := filepath.Join(c.slidesDir, base)
	cmd := exec.CommandContext(ctx, bin, "-png", "-r", strconv.Itoa(c.dpi), pdfPath, outPrefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return c.slideNames(base)
}

// toPDF converts a PPT/PPTX document to PDF in a temp directory via LibreOffice
func (c *Converter) toPDF(ctx context.Context, docPath string) (string, error) {
	bin, err := c.findBinary("soffice", c.sofficePath, sofficeCandidates())
	if err != nil {
		return "", err
	}

	outDir, err := os.MkdirTemp("", "lobbycast-convert-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, docPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.RemoveAll(outDir)
		return "", fmt.Errorf("libreoffice conversion failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	base := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	pdfPath := filepath.Join(outDir, base+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		os.RemoveAll(outDir)
		return "", fmt.Errorf("libreoffice produced no PDF output")
	}
	return pdfPath, nil
}

// findBinary resolves a converter binary: the explicit override first, then
// each platform candidate, probing with --version. Results are memoized.
func (c *Converter) findBinary(name, override string, candidates []string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if path, ok := c.resolved[name]; ok {
		return path, nil
	}

	probe := candidates
	if override != "" {
		probe = append([]string{override}, candidates...)
	}
	for _, candidate := range probe {
		if strings.ContainsRune(candidate, os.PathSeparator) {
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
		}
		if probeBinary(candidate, name) {
			c.resolved[name] = candidate
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s not found; install it and retry, or set converter.%s_path in config.toml", name, name)
}

// probeBinary runs "<candidate> --version" and accepts a zero exit or output
// naming the tool (LibreOffice reports nonzero on some platforms)
func probeBinary(candidate, name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, candidate, "--version").CombinedOutput()
	if err == nil {
		return true
	}
	lower := strings.ToLower(string(out))
	return strings.Contains(lower, "libreoffice") || strings.Contains(lower, name)
}

func sofficeCandidates() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\Program Files\LibreOffice\program\soffice.exe`,
			`C:\Program Files (x86)\LibreOffice\program\soffice.exe`,
			"soffice",
			"libreoffice",
		}
	case "darwin":
		return []string{
			"/Applications/LibreOffice.app/Contents/MacOS/soffice",
			"soffice",
			"libreoffice",
		}
	default:
		return []string{
			"/usr/bin/soffice",
			"/usr/bin/libreoffice",
			"soffice",
			"libreoffice",
		}
	}
}

func pdftoppmCandidates() []string {
	if runtime.GOOS == "windows" {
		return []string{"pdftoppm.exe", "pdftoppm"}
	}
	return []string{"/usr/bin/pdftoppm", "pdftoppm"}
}
