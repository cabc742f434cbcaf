package procfs

import (
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDirAndFindEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/d/a", nil, 0644))
	require.NoError(t, afero.WriteFile(fs, "/d/b", nil, 0644))
	require.NoError(t, fs.MkdirAll("/d/sub", 0755))

	names, err := ListDir(fs, "/d")
	require.NoError(t, err)
	sort.Strings(names)
	assert.Equal(t, []string{"a", "b", "sub"}, names)

	name, ok, err := FindEntry(fs, "/d", "sub")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sub", name)

	_, ok, err = FindEntry(fs, "/d", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = FindEntry(fs, "/nope", "a")
	assert.Error(t, err)
}
