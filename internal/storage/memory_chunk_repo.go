package storage

import (
	"context"
	"sync"

	"github.com/annel0/voxel-engine/internal/vec"
)

// MemoryChunkRepo является in-memory реализацией ChunkRepo для тестов и одноразовых миров
type MemoryChunkRepo struct {
	mu     sync.RWMutex
	chunks map[vec.ChunkPos][]byte
	closed bool

	saves int
	loads int
}

// NewMemoryChunkRepo создает новый in-memory репозиторий чанков.
func NewMemoryChunkRepo() *MemoryChunkRepo {
	return &MemoryChunkRepo{
		chunks: make(map[vec.ChunkPos][]byte),
	}
}

// Save сохраняет копию блоба
func (r *MemoryChunkRepo) Save(ctx context.Context, pos vec.ChunkPos, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	r.chunks[pos] = buf
	r.saves++
	return nil
}

// Load возвращает копию сохранённого блоба
func (r *MemoryChunkRepo) Load(ctx context.Context, pos vec.ChunkPos) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false, ErrClosed
	}
	r.loads++
	data, ok := r.chunks[pos]
	if !ok {
		return nil, false, nil
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, true, nil
}

// Delete удаляет чанк
func (r *MemoryChunkRepo) Delete(ctx context.Context, pos vec.ChunkPos) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	delete(r.chunks, pos)
	return nil
}

// Close помечает репозиторий закрытым
func (r *MemoryChunkRepo) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Len возвращает количество сохранённых чанков
func (r *MemoryChunkRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chunks)
}

// Stats возвращает количество вызовов Save и Load
func (r *MemoryChunkRepo) Stats() (saves, loads int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves, r.loads
}
