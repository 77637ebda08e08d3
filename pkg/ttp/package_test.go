package ttp

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPackage(t *testing.T) {
	scratch := t.TempDir()
	manifest := Manifest{
		Language: "en",
		Documents: []Document{{
			ExternalID: "job-abc",
			Title:      "A Lecture",
			Filename:   "material.txt",
			FileFormat: "txt",
			MD5:        Checksum("lecture text"),
		}},
		RequestedLangs: TranslationPlan("en", "en", supported),
		TestMode:       true,
	}

	pkg, err := BuildPackage(scratch, "job-abc", "lecture text", manifest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(scratch, "job-abc"), pkg.Dir)

	reader, err := zip.OpenReader(pkg.ArchivePath)
	require.NoError(t, err)
	defer reader.Close()

	entries := make(map[string][]byte)
	for _, f := range reader.File {
		assert.Equal(t, zip.Store, f.Method, "archive entries must be uncompressed")
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		entries[f.Name] = data
	}

	require.Contains(t, entries, "material.txt")
	require.Contains(t, entries, "manifest.json")
	assert.Equal(t, "lecture text", string(entries["material.txt"]))

	var decoded Manifest
	require.NoError(t, json.Unmarshal(entries["manifest.json"], &decoded))
	assert.Equal(t, manifest.Language, decoded.Language)
	assert.Equal(t, manifest.Documents, decoded.Documents)
	assert.True(t, decoded.TestMode)
}

func TestPackageCleanup_Idempotent(t *testing.T) {
	scratch := t.TempDir()
	pkg, err := BuildPackage(scratch, "job-xyz", "text", Manifest{Language: "en"})
	require.NoError(t, err)

	require.NoError(t, pkg.Cleanup())
	_, statErr := os.Stat(pkg.Dir)
	assert.True(t, os.IsNotExist(statErr))

	// A second cleanup of an already-removed package is not an error.
	assert.NoError(t, pkg.Cleanup())
}

func TestPackagesAreJobScoped(t *testing.T) {
	scratch := t.TempDir()
	first, err := BuildPackage(scratch, "job-1", "one", Manifest{Language: "en"})
	require.NoError(t, err)
	second, err := BuildPackage(scratch, "job-2", "two", Manifest{Language: "en"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Dir, second.Dir,
		"concurrent jobs must never contend on the same scratch path")

	require.NoError(t, first.Cleanup())
	_, statErr := os.Stat(second.ArchivePath)
	assert.NoError(t, statErr, "cleaning one job must not touch another's artifacts")
}
