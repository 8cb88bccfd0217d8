package driver

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BundleName is the archive name for a package: <name>-<version>.zip, or
// <name>.zip without a version.
func BundleName(m *Manifest) string {
	if m.Version == "" {
		return m.Name + ".zip"
	}
	return fmt.Sprintf("%s-%s.zip", m.Name, m.Version)
}

// WriteBundle zips files into dest. Entries are stored relative to root and
// sorted; files outside root are stored under deps/ by base name.
func WriteBundle(dest, root string, files []string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("bundle: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("bundle: create %s: %w", dest, err)
	}
	defer out.Close()

	entries := make(map[string]string, len(files))
	for _, file := range files {
		entries[bundleEntry(root, file)] = file
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(out)
	for _, name := range names {
		if err := addBundleFile(zw, name, entries[name]); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("bundle: finalize %s: %w", dest, err)
	}
	return out.Close()
}

func bundleEntry(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "deps/" + filepath.Base(file)
	}
	return filepath.ToSlash(rel)
}

func addBundleFile(zw *zip.Writer, name, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("bundle: open %s: %w", path, err)
	}
	defer in.Close()
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("bundle: add %s: %w", name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("bundle: copy %s: %w", path, err)
	}
	return nil
}
