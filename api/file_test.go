package api_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/autolabeler/api"
)

//nolint:paralleltest // We need to set environment variables, so run tests sequentially.
func TestGetConfigPath(t *testing.T) {
	tcs := map[string]struct {
		setupEnv func(t *testing.T)
		want     string
	}{
		"XDG_CONFIG_HOME is set and not empty": {
			setupEnv: func(t *testing.T) {
				t.Helper()
				t.Setenv("XDG_CONFIG_HOME", "/custom/config")
			},
			want: "/custom/config/autolabeler/labels.yaml",
		},
		"XDG_CONFIG_HOME is empty and HOME is set": {
			setupEnv: func(t *testing.T) {
				t.Helper()
				t.Setenv("XDG_CONFIG_HOME", "")
				t.Setenv("HOME", "/test/home")
			},
			want: "/test/home/.config/autolabeler/labels.yaml",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			tc.setupEnv(t)

			got := api.GetConfigPath("labels.yaml")

			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	path := filepath.Join(dir, "labels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bug:\n  color: red\n"), 0o600))

	t.Run("regular file", func(t *testing.T) {
		t.Parallel()

		data, err := api.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "bug:\n  color: red\n", string(data))
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()

		_, err := api.ReadFile(dir)
		require.ErrorContains(t, err, "path is a directory")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := api.ReadFile(filepath.Join(dir, "nope.yaml"))
		require.Error(t, err)
	})
}

func TestMarshalYAML(t *testing.T) {
	t.Parallel()

	out, err := api.MarshalYAML(map[string]string{"name": "bug"})
	require.NoError(t, err)
	assert.Equal(t, "name: bug\n", string(out))
}
