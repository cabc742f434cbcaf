package procfs

import (
	"github.com/spf13/afero"
)

// ListDir returns the names of the entries of the directory at path, in
// the order the filesystem reports them.
func ListDir(fs afero.Fs, path string) ([]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdirnames(-1)
}

// FindEntry looks for an entry called name in the directory at path. A
// missing entry is reported through the boolean, not as an error.
func FindEntry(fs afero.Fs, path, name string) (string, bool, error) {
	names, err := ListDir(fs, path)
	if err != nil {
		return "", false, err
	}
	for _, n := range names {
		if n == name {
			return n, true, nil
		}
	}
	return "", false, nil
}
