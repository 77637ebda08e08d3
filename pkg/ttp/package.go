package ttp

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	materialFilename = "material.txt"
	manifestFilename = "manifest.json"
	archiveFilename  = "document-package.zip"
)

// Package is the on-disk job artifact: a scratch directory named after the
// external job id, holding the raw text, the manifest and the submission
// archive. Jobs never share a directory, so concurrent packaging cannot
// contend on a path and a crash mid-package cannot corrupt a later run.
type Package struct {
	Dir         string
	ArchivePath string
}

// BuildPackage writes the raw text and manifest into a job-scoped scratch
// directory and archives them, uncompressed, into a single submission file.
func BuildPackage(scratchRoot, externalID, rawText string, manifest Manifest) (*Package, error) {
	dir := filepath.Join(scratchRoot, externalID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}

	textPath := filepath.Join(dir, materialFilename)
	if err := os.WriteFile(textPath, []byte(rawText), 0o644); err != nil {
		return nil, fmt.Errorf("write material text: %w", err)
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	manifestPath := filepath.Join(dir, manifestFilename)
	if err := os.WriteFile(manifestPath, manifestJSON, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	archivePath := filepath.Join(dir, archiveFilename)
	if err := writeArchive(archivePath, textPath, manifestPath); err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}

	return &Package{Dir: dir, ArchivePath: archivePath}, nil
}

// Cleanup removes the scratch directory. It is idempotent; removing an
// already-removed package is not an error.
func (p *Package) Cleanup() error {
	if p == nil || p.Dir == "" {
		return nil
	}
	return os.RemoveAll(p.Dir)
}

// writeArchive stores the given files into a zip archive without
// compression, matching what the platform expects to unpack.
func writeArchive(archivePath string, files ...string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for _, file := range files {
		if err := storeFile(w, file); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	return out.Close()
}

func storeFile(w *zip.Writer, file string) error {
	in, err := os.Open(file)
	if err != nil {
		return err
	}
	defer in.Close()

	entry, err := w.CreateHeader(&zip.FileHeader{
		Name:   filepath.Base(file),
		Method: zip.Store,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, in)
	return err
}
