package formula

import (
	"io"
	"io/fs"
	"os"
)

// -----------------------------------------------------------------------------

// Project is the unpacked source tree of a formula.
type Project struct {
	Dir   string
	DirFS fs.FS
}

// NewProject returns the project rooted at dir.
func NewProject(dir string) *Project {
	return &Project{Dir: dir, DirFS: os.DirFS(dir)}
}

// ReadFile reads the content of a file in the project.
func (p *Project) ReadFile(path string) ([]byte, error) {
	file, err := p.DirFS.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// Has reports whether path exists in the project.
func (p *Project) Has(path string) bool {
	_, err := fs.Stat(p.DirFS, path)
	return err == nil
}
