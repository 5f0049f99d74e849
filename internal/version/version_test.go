package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/unisql/internal/version"
)

func TestInfo(t *testing.T) {
	info := version.Get()
	assert.Equal(t, version.Version, info.Version)
	assert.Contains(t, info.String(), "unisql version "+version.Version)
	assert.Contains(t, info.FullString(), "Mapping documents: >= 1.0, < 2.0")
}

func TestInfo_Satisfies(t *testing.T) {
	info := version.Info{Version: "0.3.1"}

	ok, err := info.Satisfies(">= 0.3, < 1.0")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = info.Satisfies(">= 1.0")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = info.Satisfies("not a constraint")
	assert.Error(t, err)

	_, err = version.Info{Version: "dev"}.Satisfies(">= 0.1")
	assert.Error(t, err)
}
