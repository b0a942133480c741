package backup

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
)

// Snapshot writes every mod archive in modsDir into one compressed tarball.
// The compression follows the output extension: .tar.zst (default choice)
// or .tar.xz.
func Snapshot(modsDir, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	defer out.Close()

	var w io.WriteCloser
	switch {
	case strings.HasSuffix(outPath, ".tar.zst"):
		zw, err := zstd.NewWriter(out)
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		w = zw
	case strings.HasSuffix(outPath, ".tar.xz"):
		xw, err := xz.NewWriter(out)
		if err != nil {
			return fmt.Errorf("xz: %w", err)
		}
		w = xw
	default:
		return fmt.Errorf("unsupported snapshot format: %s (want .tar.zst or .tar.xz)", outPath)
	}

	tw := tar.NewWriter(w)

	entries, err := os.ReadDir(modsDir)
	if err != nil {
		return fmt.Errorf("reading mods folder: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}
		if err := addFile(tw, filepath.Join(modsDir, entry.Name()), entry.Name()); err != nil {
			return err
		}
		count++
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	logrus.Infof("Snapshot of %d mods written to %s", count, outPath)
	return nil
}

func addFile(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(fi, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

// RestoreSnapshot unpacks a snapshot tarball into modsDir. The compression
// is sniffed from the file's magic bytes, not its name.
func RestoreSnapshot(archive, modsDir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	reader, cleanup, err := decompressor(f)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if err := os.MkdirAll(modsDir, 0755); err != nil {
		return err
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if strings.Contains(hdr.Name, "..") {
			return fmt.Errorf("invalid path in snapshot: %s", hdr.Name)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		target := filepath.Join(modsDir, filepath.Base(hdr.Name))
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, hdr.FileInfo().Mode())
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return err
		}
		out.Close()
	}
	return nil
}

func decompressor(f *os.File) (io.Reader, func(), error) {
	header := make([]byte, 6)
	n, _ := f.Read(header)
	header = header[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, err
	}

	switch {
	case n >= 4 && header[0] == 0x28 && header[1] == 0xb5 && header[2] == 0x2f && header[3] == 0xfd:
		// zstd: 0x28B52FFD
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, func() { zr.Close() }, nil

	case n >= 6 && header[0] == 0xfd && header[1] == 0x37 && header[2] == 0x7a && header[3] == 0x58 && header[4] == 0x5a && header[5] == 0x00:
		// xz: 0xFD377A585A00
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("xz: %w", err)
		}
		return xr, nil, nil

	default:
		return nil, nil, fmt.Errorf("unrecognized snapshot compression")
	}
}
