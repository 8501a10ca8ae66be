package world

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/storage"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// ErrChunkNotLoaded возвращается при правке блока в нерезидентном чанке
var ErrChunkNotLoaded = errors.New("чанк не загружен")

// LoadSource описывает, откуда получен чанк
type LoadSource int

const (
	SourceStorage   LoadSource = iota // Прочитан из хранилища
	SourceGenerated                   // Сгенерирован (в хранилище не было)
	SourceRepaired                    // Сгенерирован заново вместо повреждённой записи
)

func (s LoadSource) String() string {
	switch s {
	case SourceStorage:
		return "storage"
	case SourceGenerated:
		return "generator"
	case SourceRepaired:
		return "generator (repaired)"
	default:
		return "unknown"
	}
}

// LoadResult содержит результат LoadOrGenerate
type LoadResult struct {
	Chunk  *Chunk
	Source LoadSource
	// StorageErr содержит ошибку чтения или записи хранилища. Чанк при этом всё равно получен.
	StorageErr error
	// DecodeErr содержит ошибку разбора сохранённых данных (чанк сгенерирован заново)
	DecodeErr error
}

// Level хранит резидентные чанки, генератор и хранилище мира.
// Карта чанков защищена RWMutex, доступ к хранилищу сериализован отдельным мьютексом.
type Level struct {
	ID uuid.UUID

	generator *WorldGenerator

	repoMu sync.Mutex
	repo   storage.ChunkRepo

	mu     sync.RWMutex
	chunks map[vec.ChunkPos]*Chunk
}

// NewLevel создаёт уровень. repo может быть nil, тогда чанки только генерируются.
func NewLevel(id uuid.UUID, generator *WorldGenerator, repo storage.ChunkRepo) *Level {
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Level{
		ID:        id,
		generator: generator,
		repo:      repo,
		chunks:    make(map[vec.ChunkPos]*Chunk),
	}
}

// Generator возвращает генератор уровня
func (l *Level) Generator() *WorldGenerator {
	return l.generator
}

// GetChunk возвращает резидентный чанк
func (l *Level) GetChunk(pos vec.ChunkPos) (*Chunk, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.chunks[pos]
	return c, ok
}

// Insert делает чанк резидентным (заменяя существующий)
func (l *Level) Insert(c *Chunk) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chunks[c.Coords] = c
}

// Remove убирает чанк из резидентных
func (l *Level) Remove(pos vec.ChunkPos) (*Chunk, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.chunks[pos]
	if ok {
		delete(l.chunks, pos)
	}
	return c, ok
}

// Neighbours возвращает резидентных соседей чанка в порядке vec.Faces (nil для отсутствующих)
func (l *Level) Neighbours(pos vec.ChunkPos) [6]*Chunk {
	var out [6]*Chunk
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, f := range vec.Faces {
		out[f] = l.chunks[pos.Neighbour(f)]
	}
	return out
}

// ChunkCount возвращает количество резидентных чанков
func (l *Level) ChunkCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.chunks)
}

// Positions возвращает координаты всех резидентных чанков
func (l *Level) Positions() []vec.ChunkPos {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]vec.ChunkPos, 0, len(l.chunks))
	for p := range l.chunks {
		out = append(out, p)
	}
	return out
}

// GetBlock возвращает блок по абсолютной позиции; false, если чанк не загружен
func (l *Level) GetBlock(p vec.BlockPos) (block.BlockID, bool) {
	c, ok := l.GetChunk(p.Chunk())
	if !ok {
		return block.AirBlockID, false
	}
	return c.GetBlock(p.Local()), true
}

// SetBlock изменяет блок резидентного чанка. Возвращает true, если блок изменился.
func (l *Level) SetBlock(p vec.BlockPos, id block.BlockID) (bool, error) {
	if !block.IsValidBlockID(id) {
		return false, fmt.Errorf("недопустимый ID блока: %d", id)
	}
	c, ok := l.GetChunk(p.Chunk())
	if !ok {
		return false, fmt.Errorf("%w: %v", ErrChunkNotLoaded, p.Chunk())
	}
	return c.SetBlock(p.Local(), id), nil
}

// Solid сообщает, занята ли ячейка твёрдым блоком. Незагруженные чанки пусты.
func (l *Level) Solid(p vec.BlockPos) bool {
	id, _ := l.GetBlock(p)
	return id.IsSolid()
}

// LoadOrGenerate получает чанк из хранилища, а при отсутствии или повреждении
// генерирует его и сохраняет. Чанк не вставляется в уровень.
// Безопасен для вызова из рабочих горутин.
func (l *Level) LoadOrGenerate(ctx context.Context, pos vec.ChunkPos) LoadResult {
	var res LoadResult

	if l.repo != nil {
		raw, found, err := l.load(ctx, pos)
		switch {
		case errors.Is(err, storage.ErrCorruptRecord):
			logging.LogCorruptChunk(pos, err, raw)
			res.DecodeErr = err
			res.Source = SourceRepaired
		case err != nil:
			res.StorageErr = err
		case found:
			data, err := DeserializeChunkData(raw)
			if err == nil {
				c := NewChunk(pos, data)
				c.savedHash = xxhash.Sum64(raw)
				res.Chunk = c
				res.Source = SourceStorage
				return res
			}
			logging.LogCorruptChunk(pos, err, raw)
			res.DecodeErr = err
			res.Source = SourceRepaired
		}
	}

	if res.Source != SourceRepaired {
		res.Source = SourceGenerated
	}
	c := NewChunk(pos, l.generator.GenerateChunk(pos))
	res.Chunk = c

	// При ошибке чтения не перезаписываем запись, которая может быть цела
	if l.repo != nil && res.StorageErr == nil {
		if _, err := l.SaveChunk(ctx, c); err != nil {
			res.StorageErr = err
		}
	}
	return res
}

func (l *Level) load(ctx context.Context, pos vec.ChunkPos) ([]byte, bool, error) {
	l.repoMu.Lock()
	defer l.repoMu.Unlock()
	return l.repo.Load(ctx, pos)
}

// SaveChunk сохраняет чанк, если его кодировка отличается от последней сохранённой.
// Возвращает true, если запись выполнена.
func (l *Level) SaveChunk(ctx context.Context, c *Chunk) (bool, error) {
	if l.repo == nil {
		return false, nil
	}

	data, h, changed := c.encodeForSave()
	if !changed {
		return false, nil
	}

	l.repoMu.Lock()
	err := l.repo.Save(ctx, c.Coords, data)
	l.repoMu.Unlock()
	if err != nil {
		return false, fmt.Errorf("ошибка сохранения чанка %v: %w", c.Coords, err)
	}

	c.markSaved(h)
	return true, nil
}

// SaveAll сохраняет все изменённые резидентные чанки
func (l *Level) SaveAll(ctx context.Context) (int, error) {
	l.mu.RLock()
	chunks := make([]*Chunk, 0, len(l.chunks))
	for _, c := range l.chunks {
		chunks = append(chunks, c)
	}
	l.mu.RUnlock()

	saved := 0
	var errs []error
	for _, c := range chunks {
		if !c.Modified() {
			continue
		}
		ok, err := l.SaveChunk(ctx, c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			saved++
		}
	}
	return saved, errors.Join(errs...)
}
