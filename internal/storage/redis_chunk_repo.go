package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей (0: без ограничения)
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		KeyPrefix: "voxel:",
		TTL:       0,
	}
}

// RedisChunkRepo хранит чанки в Redis. Подходит как общий кеш мира между
// перезапусками, когда диск недоступен.
type RedisChunkRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisChunkRepo создаёт новый Redis репозиторий для чанков
func NewRedisChunkRepo(config *RedisConfig) (*RedisChunkRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	// Создаём клиент Redis
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("🔴 Connected to Redis at %s", config.Addr)
	return &RedisChunkRepo{
		client:    client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
	}, nil
}

// Save сохраняет блоб чанка
func (r *RedisChunkRepo) Save(ctx context.Context, pos vec.ChunkPos, data []byte) error {
	if err := r.client.Set(ctx, chunkKey(r.keyPrefix, pos), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save chunk %v: %w", pos, err)
	}
	return nil
}

// Load загружает блоб чанка
func (r *RedisChunkRepo) Load(ctx context.Context, pos vec.ChunkPos) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, chunkKey(r.keyPrefix, pos)).Bytes()
	if err == redis.Nil {
		return nil, false, nil // Чанк не найден
	} else if err != nil {
		return nil, false, fmt.Errorf("failed to get chunk %v: %w", pos, err)
	}
	return data, true, nil
}

// Delete удаляет чанк
func (r *RedisChunkRepo) Delete(ctx context.Context, pos vec.ChunkPos) error {
	if err := r.client.Del(ctx, chunkKey(r.keyPrefix, pos)).Err(); err != nil {
		return fmt.Errorf("failed to delete chunk %v: %w", pos, err)
	}
	return nil
}

// Close закрывает подключение к Redis
func (r *RedisChunkRepo) Close() error {
	return r.client.Close()
}
