package storage

import (
	"fmt"
	"path/filepath"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/logging"
)

// Open создаёт хранилище чанков по секции storage конфигурации.
// worldID используется как префикс ключей Redis, если префикс не задан явно.
func Open(cfg config.StorageConfig, worldID string) (ChunkRepo, error) {
	var (
		repo ChunkRepo
		err  error
	)

	switch cfg.Backend {
	case "badger", "":
		repo, err = NewBadgerChunkRepo(cfg.Path)
	case "sqlite":
		path := cfg.Path
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "world.sqlite")
		}
		repo, err = NewSQLiteChunkRepo(path)
	case "mysql":
		repo, err = NewMariaChunkRepo(cfg.GetDSN())
	case "redis":
		repo, err = NewRedisChunkRepo(redisConfig(cfg, worldID))
	case "memory":
		repo = NewMemoryChunkRepo()
	default:
		return nil, fmt.Errorf("неизвестный backend хранилища: %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RedisCache && cfg.Backend != "redis" {
		hot, err := NewRedisChunkRepo(redisConfig(cfg, worldID))
		if err != nil {
			repo.Close()
			return nil, err
		}
		repo = NewTieredChunkRepo(hot, repo)
	}

	if cfg.Compression {
		compressed, err := NewCompressedChunkRepo(repo)
		if err != nil {
			repo.Close()
			return nil, err
		}
		repo = compressed
	}

	logging.Info("💾 Хранилище чанков: %s (сжатие: %v, redis-кеш: %v)", cfg.Backend, cfg.Compression, cfg.RedisCache)
	return repo, nil
}

func redisConfig(cfg config.StorageConfig, worldID string) *RedisConfig {
	prefix := cfg.Redis.KeyPrefix
	if prefix == "" {
		prefix = "voxel:" + worldID + ":"
	}
	return &RedisConfig{
		Addr:      cfg.GetRedisAddr(),
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		KeyPrefix: prefix,
		TTL:       cfg.Redis.TTL,
	}
}
