package defaults

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeDefaults(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pidlaunch.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FullFile(t *testing.T) {
	t.Parallel()

	path := writeDefaults(t, `
python     = "python3.11"
log_format = "JSON"
log_level  = "debug"
notify_url = "https://hooks.example.com/training"
profile    = "cuda12"

[profiles.cuda12]
CUDA_HOME = "/usr/local/cuda-12.1"
`)

	d, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "python3.11", d.Python)
	require.Equal(t, "json", d.LogFormat)
	require.Equal(t, "debug", d.LogLevel)
	require.Equal(t, "https://hooks.example.com/training", d.NotifyURL)

	profile, err := d.ActiveProfile()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"CUDA_HOME": "/usr/local/cuda-12.1"}, profile)
}

func TestLoad_EmptyPathYieldsZeroValue(t *testing.T) {
	t.Parallel()

	d, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "python", d.Python)
	require.Empty(t, d.NotifyURL)

	profile, err := d.ActiveProfile()
	require.NoError(t, err)
	require.Nil(t, profile)
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadIfPresent_MissingFileIsFine(t *testing.T) {
	t.Parallel()

	d, err := LoadIfPresent(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, "python", d.Python)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	path := writeDefaults(t, `pyhton = "python3"`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown keys")
}

func TestLoad_RejectsBadLogFormat(t *testing.T) {
	t.Parallel()

	path := writeDefaults(t, `log_format = "xml"`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "log_format")
}

func TestLoad_RejectsUndefinedProfile(t *testing.T) {
	t.Parallel()

	path := writeDefaults(t, `profile = "cuda12"`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), `profile "cuda12"`)
}
