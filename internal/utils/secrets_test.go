package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"khrafet/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSecretFrom(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api_key"), []byte("  value \n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty"), []byte("\n"), 0o600))

	v, err := utils.ReadSecretFrom(dir, "api_key")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = utils.ReadSecretFrom(dir, "empty")
	assert.ErrorContains(t, err, "is empty")

	_, err = utils.ReadSecretFrom(dir, "missing")
	assert.ErrorContains(t, err, "failed to read secret file")
}
