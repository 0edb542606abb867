// Package receipt records completed installs as TOML files.
package receipt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/semver"

	"github.com/kegworks/keg/pkgs/gnu"
)

// ErrInstalled is returned by Check when an equal or newer version is
// already installed.
var ErrInstalled = errors.New("already installed")

const ext = ".toml"

// Receipt describes one install.
type Receipt struct {
	Name        string    `toml:"name"`
	Version     string    `toml:"version"`
	Head        string    `toml:"head,omitempty"`
	Options     []string  `toml:"options"`
	Args        []string  `toml:"args"`
	InstalledAt time.Time `toml:"installed_at"`
	RunID       string    `toml:"run_id"`
	Verified    bool      `toml:"verified"`
}

// New returns a receipt for an install of name at version started now.
func New(name, version string) *Receipt {
	return &Receipt{
		Name:        name,
		Version:     version,
		InstalledAt: time.Now().UTC().Truncate(time.Second),
		RunID:       uuid.New().String(),
	}
}

// Compare orders two versions: semantic version order when both parse as
// one (a missing "v" is added), GNU version order otherwise.
func Compare(a, b string) int {
	sa, sb := canonical(a), canonical(b)
	if semver.IsValid(sa) && semver.IsValid(sb) {
		return semver.Compare(sa, sb)
	}
	return gnu.Compare(a, b)
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Check reports ErrInstalled when prev holds version or a newer one.
// A nil prev never blocks.
func Check(prev *Receipt, version string) error {
	if prev == nil {
		return nil
	}
	if Compare(prev.Version, version) >= 0 {
		return fmt.Errorf("%s %s: %w (installed %s)", prev.Name, version, ErrInstalled, prev.Version)
	}
	return nil
}

// CheckHead reports ErrInstalled when prev was built from commit.
func CheckHead(prev *Receipt, commit string) error {
	if prev == nil || prev.Head == "" || prev.Head != commit {
		return nil
	}
	return fmt.Errorf("%s HEAD %s: %w", prev.Name, commit, ErrInstalled)
}

// -----------------------------------------------------------------------------

// Store keeps receipts as <name>.toml files in Dir.
type Store struct {
	Dir string
}

func (s Store) path(name string) string {
	return filepath.Join(s.Dir, name+ext)
}

// Load reads the receipt of name. A missing receipt yields an error
// satisfying errors.Is(err, fs.ErrNotExist).
func (s Store) Load(name string) (*Receipt, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, err
	}
	var r Receipt
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%s: %w", s.path(name), err)
	}
	return &r, nil
}

// Lookup is Load returning nil, nil for a formula that was never installed.
func (s Store) Lookup(name string) (*Receipt, error) {
	r, err := s.Load(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return r, err
}

// Save writes r, replacing any previous receipt of the same formula.
func (s Store) Save(r *Receipt) error {
	data, err := toml.Marshal(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, r.Name+"-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(r.Name))
}

// List returns every receipt sorted by name.
func (s Store) List() ([]*Receipt, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []*Receipt
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ext)
		if !ok || e.IsDir() {
			continue
		}
		r, err := s.Load(name)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
