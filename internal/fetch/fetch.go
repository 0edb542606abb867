// Package fetch downloads and unpacks formula source archives.
package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ulikunitz/xz"

	"github.com/kegworks/keg/formula"
)

var (
	// ErrChecksum is returned when a download does not match its sha256.
	ErrChecksum = errors.New("checksum mismatch")

	// ErrFormat is returned for archives keg cannot unpack.
	ErrFormat = errors.New("unsupported archive format")
)

// Fetcher downloads source archives into Cache.
type Fetcher struct {
	Client *http.Client
	Cache  string
	Logger *log.Logger
}

// Source downloads m.URL, checks it against m.SHA256 and unpacks it into dir,
// dropping the single top-level directory archives usually carry.
func (f *Fetcher) Source(ctx context.Context, m formula.Metadata, dir string) error {
	archive, err := f.Download(ctx, m.URL, m.SHA256)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	f.logger().Info("extracting", "archive", filepath.Base(archive), "dir", dir)
	return Extract(archive, dir)
}

// Download returns the cached archive for url, fetching it first when it is
// missing or does not match sum.
func (f *Fetcher) Download(ctx context.Context, url, sum string) (_ string, err error) {
	name := sum + "--" + path.Base(url)
	dst := filepath.Join(f.Cache, name)
	if got, err := fileSum(dst); err == nil && got == sum {
		f.logger().Debug("using cached download", "file", dst)
		return dst, nil
	}

	f.logger().Info("downloading", "url", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: %s", url, resp.Status)
	}

	if err := os.MkdirAll(f.Cache, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(f.Cache, "download-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	h := sha256.New()
	_, err = io.Copy(io.MultiWriter(tmp, h), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	if got := hex.EncodeToString(h.Sum(nil)); got != sum {
		return "", fmt.Errorf("%w: %s: got %s, want %s", ErrChecksum, url, got, sum)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *Fetcher) logger() *log.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return log.New(io.Discard)
}

func fileSum(name string) (string, error) {
	file, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer file.Close()
	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// -----------------------------------------------------------------------------

// Extract unpacks a .tar.gz, .tgz or .tar.xz archive into dir, which must
// not exist yet. When the archive holds a single top-level directory, its
// contents become dir.
func Extract(archive, dir string) error {
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()

	var r io.Reader
	switch name := filepath.Base(archive); {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("%s: %w", archive, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		xzr, err := xz.NewReader(file)
		if err != nil {
			return fmt.Errorf("%s: %w", archive, err)
		}
		r = xzr
	default:
		return fmt.Errorf("%w: %s", ErrFormat, archive)
	}

	staging := dir + ".partial"
	if err := os.RemoveAll(staging); err != nil {
		return err
	}
	defer os.RemoveAll(staging)
	if err := untar(r, staging); err != nil {
		return fmt.Errorf("%s: %w", archive, err)
	}

	top, err := os.ReadDir(staging)
	if err != nil {
		return err
	}
	if len(top) == 1 && top[0].IsDir() {
		return os.Rename(filepath.Join(staging, top[0].Name()), dir)
	}
	return os.Rename(staging, dir)
}

func untar(r io.Reader, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		name := path.Clean(strings.TrimPrefix(hdr.Name, "./"))
		if name == "." || hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}
		if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
			return fmt.Errorf("illegal path %q", hdr.Name)
		}
		target := filepath.Join(dir, filepath.FromSlash(name))
		if err := checkNoLink(dir, name); err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()|0o200); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if !linkInside(dir, target, hdr.Linkname) {
				return fmt.Errorf("illegal link %q -> %q", hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}

// linkInside reports whether a symlink at target pointing to linkname
// resolves inside dir.
func linkInside(dir, target, linkname string) bool {
	if linkname == "" || filepath.IsAbs(linkname) || path.IsAbs(linkname) {
		return false
	}
	resolved := filepath.Join(filepath.Dir(target), filepath.FromSlash(linkname))
	rel, err := filepath.Rel(dir, resolved)
	return err == nil && filepath.IsLocal(rel)
}

// checkNoLink fails when the slash-separated name below dir passes through,
// or ends at, a symlink extracted earlier.
func checkNoLink(dir, name string) error {
	cur := dir
	for _, elem := range strings.Split(name, "/") {
		cur = filepath.Join(cur, elem)
		info, err := os.Lstat(cur)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("illegal path %q: goes through symlink %q", name, cur)
		}
	}
	return nil
}

func writeFile(name string, r io.Reader, perm os.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	_, err = io.Copy(file, r)
	return err
}
