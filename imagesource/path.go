// Package imagesource provides subsampling.ImageSource implementations for
// plain files, in-memory bytes and entries of zip, rar and 7z archives.
package imagesource

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode"
)

// Path locates an image on disk or inside an archive.
type Path struct {
	Path        string // Local file path or archive:entry format
	ArchivePath string // Empty for regular files, path to archive for entries
	EntryPath   string // Empty for regular files, path within archive for entries
}

// FilePath returns the Path of a regular file.
func FilePath(path string) Path {
	return Path{Path: path}
}

// EntryOf returns the Path of an archive entry.
func EntryOf(archivePath, entryPath string) Path {
	return Path{Path: archivePath + ":" + entryPath, ArchivePath: archivePath, EntryPath: entryPath}
}

// IsArchiveEntry reports whether the path points into an archive.
func (p Path) IsArchiveEntry() bool {
	return p.ArchivePath != ""
}

// Name returns the base name of the file or entry.
func (p Path) Name() string {
	if p.IsArchiveEntry() {
		return filepath.Base(p.EntryPath)
	}
	return filepath.Base(p.Path)
}

func (p Path) String() string {
	return p.Path
}

// IsArchiveExt reports whether path has a supported archive extension.
func IsArchiveExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".rar", ".7z":
		return true
	default:
		return false
	}
}

// IsSupportedExt reports whether path has a decodable image extension.
func IsSupportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".webp", ".bmp", ".gif":
		return true
	default:
		return false
	}
}

// ListArchive returns the image entries of an archive in archive order.
func ListArchive(archivePath string) ([]Path, error) {
	var names []string
	var err error
	switch ext := strings.ToLower(filepath.Ext(archivePath)); ext {
	case ".zip":
		names, err = listZip(archivePath)
	case ".rar":
		names, err = listRar(archivePath)
	case ".7z":
		names, err = list7z(archivePath)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", archivePath, err)
	}
	images := make([]Path, 0, len(names))
	for _, name := range names {
		if IsSupportedExt(name) {
			images = append(images, EntryOf(archivePath, name))
		}
	}
	return images, nil
}

func listZip(archivePath string) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var names []string
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	return names, nil
}

func listRar(archivePath string) ([]string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := rardecode.NewReader(f, "")
	if err != nil {
		return nil, err
	}

	var names []string
	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !header.IsDir {
			names = append(names, header.Name)
		}
	}
	return names, nil
}

func list7z(archivePath string) ([]string, error) {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var names []string
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	return names, nil
}

// ReadBytes returns the raw bytes of a file or archive entry.
func ReadBytes(p Path) ([]byte, error) {
	if !p.IsArchiveEntry() {
		return os.ReadFile(p.Path)
	}
	switch ext := strings.ToLower(filepath.Ext(p.ArchivePath)); ext {
	case ".zip":
		return readZipEntry(p.ArchivePath, p.EntryPath)
	case ".rar":
		return readRarEntry(p.ArchivePath, p.EntryPath)
	case ".7z":
		return read7zEntry(p.ArchivePath, p.EntryPath)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", ext)
	}
}

func readZipEntry(archivePath, entryPath string) ([]byte, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == entryPath {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", entryPath, archivePath)
}

func readRarEntry(archivePath, entryPath string) ([]byte, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := rardecode.NewReader(f, "")
	if err != nil {
		return nil, err
	}
	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Name == entryPath {
			return io.ReadAll(r)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", entryPath, archivePath)
}

func read7zEntry(archivePath, entryPath string) ([]byte, error) {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == entryPath {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", entryPath, archivePath)
}
