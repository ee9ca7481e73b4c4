package planner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/allocator/internal/artifact"
	"github.com/paiban/allocator/internal/config"
	"github.com/paiban/allocator/internal/metrics"
	"github.com/paiban/allocator/internal/repository"
	"github.com/paiban/allocator/pkg/errors"
	"github.com/paiban/allocator/pkg/profile"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("不使用存储", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{Backend: config.StorageNone}}
		store, db, closer, err := OpenStore(ctx, cfg)
		require.NoError(t, err)
		assert.Nil(t, store)
		assert.Nil(t, db)
		assert.NoError(t, closer.Close())
	})

	t.Run("文件存储", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "artifacts")
		cfg := &config.Config{Storage: config.StorageConfig{Backend: config.StorageFile, ArtifactDir: dir}}
		store, db, closer, err := OpenStore(ctx, cfg)
		require.NoError(t, err)
		defer closer.Close()
		assert.Nil(t, db)
		assert.IsType(t, &artifact.Store{}, store)
		assert.DirExists(t, filepath.Join(dir, "plans"))
	})

	t.Run("SQLite 存储", func(t *testing.T) {
		cfg := &config.Config{
			Storage: config.StorageConfig{Backend: config.StorageDatabase},
			Database: config.DatabaseConfig{
				Driver:       config.DriverSQLite,
				SQLitePath:   filepath.Join(t.TempDir(), "allocator.db"),
				MaxOpenConns: 1,
			},
		}
		store, db, closer, err := OpenStore(ctx, cfg)
		require.NoError(t, err)
		defer closer.Close()
		require.NotNil(t, db)
		assert.NoError(t, db.Health(ctx))
		assert.IsType(t, &repository.Store{}, store)

		svc := NewService(nil, store, metrics.NewRegistry(), DefaultOptions())
		plan, err := svc.Allocate(ctx, AllocateRequest{Snapshot: testSnapshot(), Range: march, Persist: true})
		require.NoError(t, err)
		stored, err := svc.Plan(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, plan.PlanID, stored.PlanID)
		assert.Equal(t, plan.Metrics, stored.Metrics)
	})

	t.Run("未知后端", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{Backend: "s3"}}
		_, _, _, err := OpenStore(ctx, cfg)
		assert.Error(t, err)
	})
}

func TestLoadProfiles(t *testing.T) {
	set, err := LoadProfiles(config.AllocatorConfig{})
	require.NoError(t, err)
	_, err = set.Get(profile.DefaultName)
	assert.NoError(t, err)

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default:
  description: Standard
  policy:
    max_consecutive_days: 4
legacy:
  policy:
    avoid_mondays: true
`), 0o644))

	set, err = LoadProfiles(config.AllocatorConfig{ProfilesPath: path})
	require.NoError(t, err)
	p, err := set.Get(profile.DefaultName)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Policy.MaxConsecutiveDays)

	_, err = LoadProfiles(config.AllocatorConfig{ProfilesPath: path, StrictProfiles: true})
	assert.True(t, errors.Is(err, errors.CodeUnknownPolicyKey))

	_, err = LoadProfiles(config.AllocatorConfig{ProfilesPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.True(t, errors.Is(err, errors.CodeInvalidProfile))
}
