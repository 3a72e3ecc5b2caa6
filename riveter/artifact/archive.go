package artifact

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ExtractError covers unreadable or malformed archives; mapped onto the
// same fatal handling as a truncated download.
type ExtractError struct {
	Archive string
	Err     error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Archive, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// ExtractBinary locates binaryName inside the archive and stages it under
// workDir. Format "binary" means the download already is the executable.
func ExtractBinary(archivePath, format, binaryName, workDir string) (string, error) {
	switch format {
	case "binary":
		return archivePath, nil
	case "tar.gz":
		return extractFromTarGz(archivePath, binaryName, workDir)
	case "zip":
		return extractFromZip(archivePath, binaryName, workDir)
	default:
		return "", &ExtractError{Archive: archivePath, Err: fmt.Errorf("unsupported archive format %q", format)}
	}
}

func extractFromTarGz(archivePath, binaryName, workDir string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", &ExtractError{Archive: archivePath, Err: err}
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", &ExtractError{Archive: archivePath, Err: err}
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &ExtractError{Archive: archivePath, Err: err}
		}
		if header.Typeflag != tar.TypeReg || filepath.Base(header.Name) != binaryName {
			continue
		}
		return stage(tr, binaryName, workDir)
	}
	return "", &ExtractError{Archive: archivePath, Err: fmt.Errorf("binary %q not found in archive", binaryName)}
}

func extractFromZip(archivePath, binaryName, workDir string) (string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", &ExtractError{Archive: archivePath, Err: err}
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || filepath.Base(entry.Name) != binaryName {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return "", &ExtractError{Archive: archivePath, Err: err}
		}
		defer rc.Close()
		return stage(rc, binaryName, workDir)
	}
	return "", &ExtractError{Archive: archivePath, Err: fmt.Errorf("binary %q not found in archive", binaryName)}
}

func stage(src io.Reader, binaryName, workDir string) (string, error) {
	staged := filepath.Join(workDir, binaryName)
	out, err := os.OpenFile(staged, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", err
	}
	return staged, nil
}
