package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/vec"
)

// TieredChunkRepo реализует двухуровневое хранилище: горячий кеш (обычно Redis)
// перед постоянным хранилищем. Ошибки кеша не прерывают операции,
// источником истины остаётся cold.
type TieredChunkRepo struct {
	hot  ChunkRepo
	cold ChunkRepo
}

// NewTieredChunkRepo создаёт хранилище с кешем hot перед cold
func NewTieredChunkRepo(hot, cold ChunkRepo) *TieredChunkRepo {
	return &TieredChunkRepo{hot: hot, cold: cold}
}

// Save пишет в постоянное хранилище, затем обновляет кеш
func (r *TieredChunkRepo) Save(ctx context.Context, pos vec.ChunkPos, data []byte) error {
	if err := r.cold.Save(ctx, pos, data); err != nil {
		return err
	}
	if err := r.hot.Save(ctx, pos, data); err != nil {
		// устаревшая запись в кеше хуже промаха
		logging.Warn("Кеш: не удалось обновить чанк %s: %v", pos, err)
		_ = r.hot.Delete(ctx, pos)
	}
	return nil
}

// Load читает из кеша, при промахе из постоянного хранилища с заполнением кеша
func (r *TieredChunkRepo) Load(ctx context.Context, pos vec.ChunkPos) ([]byte, bool, error) {
	data, found, err := r.hot.Load(ctx, pos)
	if err != nil {
		logging.Warn("Кеш: ошибка чтения чанка %s: %v", pos, err)
	} else if found {
		return data, true, nil
	}

	data, found, err = r.cold.Load(ctx, pos)
	if err != nil || !found {
		return data, found, err
	}

	if err := r.hot.Save(ctx, pos, data); err != nil {
		logging.Debug("Кеш: не удалось заполнить чанк %s: %v", pos, err)
	}
	return data, true, nil
}

// Delete удаляет чанк из обоих уровней
func (r *TieredChunkRepo) Delete(ctx context.Context, pos vec.ChunkPos) error {
	coldErr := r.cold.Delete(ctx, pos)
	hotErr := r.hot.Delete(ctx, pos)
	if err := errors.Join(coldErr, hotErr); err != nil {
		return fmt.Errorf("failed to delete chunk %v: %w", pos, err)
	}
	return nil
}

// Close закрывает оба уровня
func (r *TieredChunkRepo) Close() error {
	return errors.Join(r.hot.Close(), r.cold.Close())
}
