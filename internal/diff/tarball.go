package diff

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// fetchRegistrySource downloads the published tarball for (name,
// version), unpacks it and returns the directory holding the sources.
// Tarballs contain a single top-level directory; already-unpacked
// versions are reused within the engine's lifetime.
func (e *Engine) fetchRegistrySource(ctx context.Context, name, version string) (string, error) {
	dest := filepath.Join(e.dir, fmt.Sprintf("%s-%s-registry", name, version))
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		body, downloadErr := e.registry.DownloadVersionTarball(ctx, name, version)
		if downloadErr != nil {
			return "", fmt.Errorf("failed to download %s@%s: %w", name, version, downloadErr)
		}
		defer body.Close()

		if unpackErr := unpackTarGz(body, dest); unpackErr != nil {
			return "", fmt.Errorf("failed to unpack %s@%s: %w", name, version, unpackErr)
		}
	}

	entries, err := os.ReadDir(dest)
	if err != nil {
		return "", fmt.Errorf("failed to read unpacked tarball: %w", err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return "", fmt.Errorf("unexpected tarball layout for %s@%s", name, version)
	}
	return filepath.Join(dest, entries[0].Name()), nil
}

// unpackTarGz extracts a gzip-compressed tarball into dest, rejecting
// entries that would escape it.
func unpackTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	archive := tar.NewReader(gz)
	for {
		header, nextErr := archive.Next()
		if nextErr == io.EOF {
			return nil
		}
		if nextErr != nil {
			return fmt.Errorf("failed to read tar entry: %w", nextErr)
		}

		cleaned := filepath.Clean(header.Name)
		if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
			return fmt.Errorf("tar entry %q escapes destination", header.Name)
		}
		target := filepath.Join(dest, cleaned)

		switch header.Typeflag {
		case tar.TypeDir:
			if mkErr := os.MkdirAll(target, 0o755); mkErr != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, mkErr)
			}
		case tar.TypeReg:
			if mkErr := os.MkdirAll(filepath.Dir(target), 0o755); mkErr != nil {
				return fmt.Errorf("failed to create directory for %q: %w", target, mkErr)
			}
			file, openErr := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
			if openErr != nil {
				return fmt.Errorf("failed to create file %q: %w", target, openErr)
			}
			if _, copyErr := io.Copy(file, archive); copyErr != nil {
				file.Close()
				return fmt.Errorf("failed to write %q: %w", target, copyErr)
			}
			file.Close()
		default:
			// Symlinks and special entries are dropped; published
			// tarballs carry plain files and directories.
		}
	}
}
