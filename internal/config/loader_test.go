package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowcalc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  format: json
  rotation:
    max_backups: 7
server:
  addr: ":9000"
  shutdown_timeout: 30s
sheet: demo.hcl
`), 0o644))

	t.Setenv("FLOWCALC_SERVER_ADDR", ":9100")
	t.Setenv("FLOWCALC_LOG_ROTATION_COMPRESS", "true")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-format", "text", "")
	require.NoError(t, flags.Parse([]string{"--log-format", "TEXT"}))

	v := NewViper()
	v.Set(KeyConfigFile, path)
	require.NoError(t, v.BindPFlag("log.format", flags.Lookup("log-format")))

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level, "from file")
	assert.Equal(t, "text", cfg.Log.Format, "flag overrides file")
	assert.Equal(t, ":9100", cfg.Server.Addr, "env overrides file")
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 7, cfg.Log.Rotation.MaxBackups)
	assert.Equal(t, 10, cfg.Log.Rotation.MaxSizeMB, "default survives partial section")
	assert.True(t, cfg.Log.Rotation.Compress)
	assert.Equal(t, "demo.hcl", cfg.Sheet)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(t *testing.T, v *viper.Viper)
	}{
		{
			name: "missing config file",
			setup: func(t *testing.T, v *viper.Viper) {
				v.Set(KeyConfigFile, filepath.Join(t.TempDir(), "nope.yaml"))
			},
		},
		{
			name: "invalid level",
			setup: func(t *testing.T, v *viper.Viper) {
				t.Setenv("FLOWCALC_LOG_LEVEL", "loud")
			},
		},
		{
			name: "invalid format",
			setup: func(t *testing.T, v *viper.Viper) {
				t.Setenv("FLOWCALC_LOG_FORMAT", "xml")
			},
		},
		{
			name: "invalid duration",
			setup: func(t *testing.T, v *viper.Viper) {
				t.Setenv("FLOWCALC_SERVER_SHUTDOWN_TIMEOUT", "soon")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := NewViper()
			tc.setup(t, v)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	cfg.Server.ShutdownTimeout = -time.Second

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "shutdown_timeout")
}
