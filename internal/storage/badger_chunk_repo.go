package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/dgraph-io/badger/v3"
)

// BadgerChunkRepo хранит закодированные чанки в BadgerDB
type BadgerChunkRepo struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerChunkRepo открывает (или создаёт) базу чанков в dataPath/chunks
func NewBadgerChunkRepo(dataPath string) (*BadgerChunkRepo, error) {
	dbPath := filepath.Join(dataPath, "chunks")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerChunkRepo{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных
func (r *BadgerChunkRepo) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.isReady {
		return nil
	}

	r.isReady = false
	return r.db.Close()
}

// Save сохраняет блоб чанка
func (r *BadgerChunkRepo) Save(ctx context.Context, pos vec.ChunkPos, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.isReady {
		return ErrClosed
	}

	key := chunkKey("", pos)
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения чанка %v в BadgerDB: %w", pos, err)
	}

	return nil
}

// Load загружает блоб чанка
func (r *BadgerChunkRepo) Load(ctx context.Context, pos vec.ChunkPos) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.isReady {
		return nil, false, ErrClosed
	}

	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(chunkKey("", pos)))
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)
		return err
	})

	if err == badger.ErrKeyNotFound {
		// Чанк ещё не сохранялся
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка загрузки чанка %v: %w", pos, err)
	}

	return data, true, nil
}

// Delete удаляет чанк
func (r *BadgerChunkRepo) Delete(ctx context.Context, pos vec.ChunkPos) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.isReady {
		return ErrClosed
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(chunkKey("", pos)))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления чанка %v: %w", pos, err)
	}
	return nil
}

// RunGC запускает сборку мусора в value log BadgerDB
func (r *BadgerChunkRepo) RunGC() error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.isReady {
		return ErrClosed
	}

	err := r.db.RunValueLogGC(0.5)
	if err == badger.ErrNoRewrite {
		return nil
	}
	return err
}
