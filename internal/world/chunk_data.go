package world

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// ErrCorruptChunk возвращается при разборе повреждённого закодированного чанка
var ErrCorruptChunk = errors.New("повреждённые данные чанка")

// Размер одной записи RLE: счётчик (uint16, big-endian) + значение (uint8)
const rleRecordSize = 3

// ChunkData хранит 32x32x32 ячеек. Массив всегда выделен целиком,
// индекс ячейки: x + y*32 + z*1024.
type ChunkData struct {
	blocks [vec.ChunkVolume]block.BlockID
}

// NewChunkData создаёт пустой чанк
func NewChunkData() *ChunkData {
	return &ChunkData{}
}

// Block возвращает блок по локальной позиции
func (d *ChunkData) Block(l vec.LocalPos) block.BlockID {
	return d.blocks[l.Index()]
}

// SetBlock устанавливает блок по локальной позиции
func (d *ChunkData) SetBlock(l vec.LocalPos, id block.BlockID) {
	d.blocks[l.Index()] = id
}

// At возвращает блок по координатам без проверки диапазона
func (d *ChunkData) At(x, y, z int) block.BlockID {
	return d.blocks[x+y*vec.ChunkSize+z*vec.ChunkSize*vec.ChunkSize]
}

// Count возвращает количество заполненных ячеек
func (d *ChunkData) Count() int {
	n := 0
	for _, b := range d.blocks {
		if b != block.AirBlockID {
			n++
		}
	}
	return n
}

// IsEmpty проверяет, что все ячейки пусты
func (d *ChunkData) IsEmpty() bool {
	for _, b := range d.blocks {
		if b != block.AirBlockID {
			return false
		}
	}
	return true
}

// Fill заполняет все ячейки одним значением
func (d *ChunkData) Fill(id block.BlockID) {
	for i := range d.blocks {
		d.blocks[i] = id
	}
}

// Clone возвращает независимую копию
func (d *ChunkData) Clone() *ChunkData {
	c := *d
	return &c
}

// Serialize кодирует чанк записями (count, value) для каждой максимальной серии
// одинаковых ячеек в порядке индекса. Однородный чанк кодируется одной записью.
func (d *ChunkData) Serialize() []byte {
	out := make([]byte, 0, 64)
	var rec [rleRecordSize]byte

	run := 1
	cur := d.blocks[0]
	flush := func() {
		binary.BigEndian.PutUint16(rec[:2], uint16(run))
		rec[2] = byte(cur)
		out = append(out, rec[:]...)
	}

	for i := 1; i < vec.ChunkVolume; i++ {
		if d.blocks[i] == cur {
			run++
			continue
		}
		flush()
		cur = d.blocks[i]
		run = 1
	}
	flush()

	return out
}

// DeserializeChunkData разбирает результат Serialize. Ошибка возвращается,
// если запись обрезана, серия пустая, значение неизвестно или сумма серий
// не равна объёму чанка.
func DeserializeChunkData(data []byte) (*ChunkData, error) {
	if len(data)%rleRecordSize != 0 {
		return nil, fmt.Errorf("%w: обрезанная запись (длина %d)", ErrCorruptChunk, len(data))
	}

	d := &ChunkData{}
	total := 0
	for off := 0; off < len(data); off += rleRecordSize {
		count := int(binary.BigEndian.Uint16(data[off : off+2]))
		id := block.BlockID(data[off+2])

		if count == 0 {
			return nil, fmt.Errorf("%w: пустая серия на смещении %d", ErrCorruptChunk, off)
		}
		if !block.IsValidBlockID(id) {
			return nil, fmt.Errorf("%w: неизвестный код блока %d", ErrCorruptChunk, id)
		}
		if total+count > vec.ChunkVolume {
			return nil, fmt.Errorf("%w: серии превышают объём чанка", ErrCorruptChunk)
		}

		if id != block.AirBlockID {
			for i := total; i < total+count; i++ {
				d.blocks[i] = id
			}
		}
		total += count
	}

	if total != vec.ChunkVolume {
		return nil, fmt.Errorf("%w: декодировано %d ячеек из %d", ErrCorruptChunk, total, vec.ChunkVolume)
	}
	return d, nil
}
