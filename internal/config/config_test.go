package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "allocator", cfg.App.Name)
	assert.Equal(t, 7012, cfg.App.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Equal(t, "default", cfg.Allocator.DefaultProfile)
	assert.Equal(t, 7, cfg.Allocator.AlternativeLimit)
	assert.Equal(t, 5, cfg.Allocator.NearMissLimit)
	assert.Equal(t, 1, cfg.Allocator.Workers)
	assert.Equal(t, []string{"*"}, cfg.API.CORS.Origins)
	assert.Empty(t, cfg.API.APIKeys)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/alloc.db")
	t.Setenv("API_KEYS", "k1, k2,,")
	t.Setenv("ALLOC_STRICT_PROFILES", "true")
	t.Setenv("ALLOC_TIMEOUT", "5s")
	t.Setenv("ALLOC_ALTERNATIVES", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Contains(t, cfg.Database.DSN(), "file:/tmp/alloc.db")
	assert.Equal(t, []string{"k1", "k2"}, cfg.API.APIKeys)
	assert.True(t, cfg.Allocator.StrictProfiles)
	assert.Equal(t, 5*time.Second, cfg.Allocator.Timeout)
	assert.Equal(t, 7, cfg.Allocator.AlternativeLimit, "无法解析的值使用默认值")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ALLOC_DEFAULT_PROFILE=march\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("ALLOC_DEFAULT_PROFILE") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "march", cfg.Allocator.DefaultProfile)
}

func TestLoadFromPath(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  port: 8080
storage:
  backend: database
allocator:
  profiles_path: profiles.yaml
  include_evaluation_matrix: true
  timeout: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "allocator", cfg.App.Name, "文件未给出的字段保留环境默认值")
	assert.Equal(t, StorageDatabase, cfg.Storage.Backend)
	assert.Equal(t, "profiles.yaml", cfg.Allocator.ProfilesPath)
	assert.True(t, cfg.Allocator.IncludeEvaluationMatrix)
	assert.Equal(t, 45*time.Second, cfg.Allocator.Timeout)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		data string
	}{
		{"未知驱动", "database:\n  driver: mysql\n"},
		{"未知存储后端", "storage:\n  backend: s3\n"},
		{"端口越界", "app:\n  port: 70000\n"},
		{"工作协程为零", "allocator:\n  workers: 0\n"},
		{"语法错误", "app: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))

			_, err := LoadFromPath(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
