package planner

import (
	"context"
	"fmt"
	"io"

	"github.com/paiban/allocator/internal/artifact"
	"github.com/paiban/allocator/internal/config"
	"github.com/paiban/allocator/internal/database"
	"github.com/paiban/allocator/internal/repository"
	"github.com/paiban/allocator/pkg/logger"
	"github.com/paiban/allocator/pkg/profile"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore 按存储配置打开后端. backend 为 none 时返回 nil Store.
// 返回的 Closer 总是非 nil; 使用数据库时 db 同时可用于健康检查.
func OpenStore(ctx context.Context, cfg *config.Config) (Store, *database.DB, io.Closer, error) {
	switch cfg.Storage.Backend {
	case config.StorageNone:
		logger.Info().Msg("未配置存储, 只支持内联快照")
		return nil, nil, nopCloser{}, nil

	case config.StorageDatabase:
		db, err := database.New(&cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
		return repository.NewStore(db), db, db, nil

	case config.StorageFile, "":
		store, err := artifact.NewStore(cfg.Storage.ArtifactDir)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info().Str("dir", store.Root()).Msg("使用文件存储")
		return store, nil, nopCloser{}, nil

	default:
		return nil, nil, nil, fmt.Errorf("不支持的存储后端: %s", cfg.Storage.Backend)
	}
}

// LoadProfiles 加载配置集合, 未配置文件时使用内置默认配置
func LoadProfiles(cfg config.AllocatorConfig) (*profile.Set, error) {
	if cfg.ProfilesPath == "" {
		return profile.DefaultSet(), nil
	}
	mode := profile.Permissive
	if cfg.StrictProfiles {
		mode = profile.Strict
	}
	return profile.LoadFile(cfg.ProfilesPath, mode)
}
