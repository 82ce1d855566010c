package protoval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	dir := t.TempDir()

	path, err := Export(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "protoval", "options.proto"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Source, string(data))
	assert.True(t, strings.Contains(Source, "package protoval;"))
}
