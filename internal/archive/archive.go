// Package archive implements oxdb's export/import of a document or
// database directory to and from a single zip file.
package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
)

// Export walks srcDir and writes every regular file under it into a new
// zip archive at destZip, using paths relative to srcDir as archive
// entry names.
func Export(srcDir, destZip string) error {
	info, err := os.Stat(srcDir)
	if err != nil {
		return ouxerr.IoErr("stat source directory", err)
	}
	if !info.IsDir() {
		return ouxerr.BadArgumentf("export source %q is not a directory", srcDir)
	}

	out, err := os.Create(destZip)
	if err != nil {
		return ouxerr.IoErr("creating archive", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		return copyIntoZip(zw, path, filepath.ToSlash(rel))
	})
	closeErr := zw.Close()
	if walkErr != nil {
		return ouxerr.IoErr("archiving directory", walkErr)
	}
	if closeErr != nil {
		return ouxerr.IoErr("finalizing archive", closeErr)
	}
	return nil
}

func copyIntoZip(zw *zip.Writer, srcPath, entryName string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.Create(entryName)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

// Import extracts srcZip into a new sibling directory under destParent
// named after the archive's base name (without extension), and returns
// that directory.
func Import(srcZip, destParent string) (string, error) {
	r, err := zip.OpenReader(srcZip)
	if err != nil {
		return "", ouxerr.IoErr("opening archive", err)
	}
	defer r.Close()

	base := filepath.Base(srcZip)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	destDir := filepath.Join(destParent, base)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", ouxerr.IoErr("creating import directory", err)
	}

	for _, f := range r.File {
		if err := extractOne(destDir, f); err != nil {
			return "", ouxerr.IoErr("extracting archive entry "+f.Name, err)
		}
	}
	return destDir, nil
}

func extractOne(destDir string, f *zip.File) error {
	target := filepath.Join(destDir, filepath.FromSlash(f.Name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return ouxerr.BadArgumentf("archive entry %q escapes destination", f.Name)
	}
	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
