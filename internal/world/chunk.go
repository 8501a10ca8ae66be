package world

import (
	"sync"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/cespare/xxhash/v2"
)

// Chunk представляет резидентный чанк мира. Данные защищены RWMutex: задачи мешинга и
// физика читают одновременно, правки блоков получают исключительный доступ.
type Chunk struct {
	Coords vec.ChunkPos // Координаты чанка в мире

	Mu   sync.RWMutex // Мьютекс для безопасного доступа
	data *ChunkData

	modified  bool   // Изменён после загрузки
	savedHash uint64 // xxhash последней сохранённой кодировки
}

// NewChunk создаёт резидентный чанк из данных
func NewChunk(coords vec.ChunkPos, data *ChunkData) *Chunk {
	if data == nil {
		data = NewChunkData()
	}
	return &Chunk{Coords: coords, data: data}
}

// GetBlock возвращает блок по локальной позиции
func (c *Chunk) GetBlock(l vec.LocalPos) block.BlockID {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.data.Block(l)
}

// SetBlock устанавливает блок и помечает чанк изменённым.
// Возвращает false, если значение не изменилось.
func (c *Chunk) SetBlock(l vec.LocalPos, id block.BlockID) bool {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	if c.data.Block(l) == id {
		return false
	}
	c.data.SetBlock(l, id)
	c.modified = true
	return true
}

// Clear очищает все ячейки чанка
func (c *Chunk) Clear() {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	if c.data.IsEmpty() {
		return
	}
	c.data.Fill(block.AirBlockID)
	c.modified = true
}

// Read выполняет fn под блокировкой на чтение. fn не должна сохранять ссылку на данные.
func (c *Chunk) Read(fn func(d *ChunkData)) {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	fn(c.data)
}

// Snapshot возвращает копию данных чанка
func (c *Chunk) Snapshot() *ChunkData {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.data.Clone()
}

// Modified сообщает, изменялся ли чанк после последнего сохранения
func (c *Chunk) Modified() bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.modified
}

// encodeForSave кодирует чанк и сообщает, отличается ли результат от сохранённого
func (c *Chunk) encodeForSave() ([]byte, uint64, bool) {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	data := c.data.Serialize()
	h := xxhash.Sum64(data)
	return data, h, h != c.savedHash
}

// markSaved фиксирует хеш сохранённой кодировки
func (c *Chunk) markSaved(h uint64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	c.savedHash = h
	// между кодированием и сохранением чанк мог измениться ещё раз
	current := xxhash.Sum64(c.data.Serialize())
	c.modified = current != h
}
