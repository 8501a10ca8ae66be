package vec

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ChunkSize задаёт длину ребра чанка в блоках
const ChunkSize = 32

// ChunkVolume равен количеству ячеек в чанке
const ChunkVolume = ChunkSize * ChunkSize * ChunkSize

// BlockPos представляет абсолютную целочисленную координату блока в мире
type BlockPos struct {
	X int32
	Y int32
	Z int32
}

// ChunkPos представляет координату чанка. Чанк (cx, cy, cz) покрывает блоки
// [32*c, 32*c+31] по каждой оси.
type ChunkPos struct {
	X int32
	Y int32
	Z int32
}

// LocalPos задаёт позицию блока внутри чанка, каждая компонента в [0, 31]
type LocalPos struct {
	X uint8
	Y uint8
	Z uint8
}

// FloorDiv выполняет целочисленное деление с округлением вниз
func FloorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// EuclidMod возвращает неотрицательный остаток от деления
func EuclidMod(a, b int32) int32 {
	m := a % b
	if m < 0 {
		if b < 0 {
			m -= b
		} else {
			m += b
		}
	}
	return m
}

// Chunk возвращает координату чанка, содержащего блок
func (p BlockPos) Chunk() ChunkPos {
	return ChunkPos{
		X: FloorDiv(p.X, ChunkSize),
		Y: FloorDiv(p.Y, ChunkSize),
		Z: FloorDiv(p.Z, ChunkSize),
	}
}

// Local возвращает позицию блока внутри его чанка
func (p BlockPos) Local() LocalPos {
	return LocalPos{
		X: uint8(EuclidMod(p.X, ChunkSize)),
		Y: uint8(EuclidMod(p.Y, ChunkSize)),
		Z: uint8(EuclidMod(p.Z, ChunkSize)),
	}
}

// Add складывает позицию со смещением
func (p BlockPos) Add(dx, dy, dz int32) BlockPos {
	return BlockPos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Vec возвращает координату минимального угла блока
func (p BlockPos) Vec() mgl64.Vec3 {
	return mgl64.Vec3{float64(p.X), float64(p.Y), float64(p.Z)}
}

func (p BlockPos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// Block собирает абсолютную координату из координаты чанка и локальной позиции
func (c ChunkPos) Block(l LocalPos) BlockPos {
	return BlockPos{
		X: c.X*ChunkSize + int32(l.X),
		Y: c.Y*ChunkSize + int32(l.Y),
		Z: c.Z*ChunkSize + int32(l.Z),
	}
}

// Origin возвращает абсолютную координату блока (0,0,0) чанка
func (c ChunkPos) Origin() BlockPos {
	return c.Block(LocalPos{})
}

// Neighbour возвращает соседний чанк через грань f
func (c ChunkPos) Neighbour(f Face) ChunkPos {
	d := f.Offset()
	return ChunkPos{X: c.X + d.X, Y: c.Y + d.Y, Z: c.Z + d.Z}
}

// Adjacent возвращает шесть соседей по граням в порядке Face
func (c ChunkPos) Adjacent() [6]ChunkPos {
	var out [6]ChunkPos
	for _, f := range Faces {
		out[f] = c.Neighbour(f)
	}
	return out
}

// DistanceSq возвращает квадрат расстояния между чанками.
// Разности считаются в int64, поэтому координаты у границ int32 не переполняются.
func (c ChunkPos) DistanceSq(other ChunkPos) int64 {
	dx := int64(c.X) - int64(other.X)
	dy := int64(c.Y) - int64(other.Y)
	dz := int64(c.Z) - int64(other.Z)
	return dx*dx + dy*dy + dz*dz
}

func (c ChunkPos) String() string {
	return fmt.Sprintf("[%d, %d, %d]", c.X, c.Y, c.Z)
}

// Index возвращает линейный индекс ячейки: x + y*32 + z*1024
func (l LocalPos) Index() int {
	return int(l.X) + int(l.Y)*ChunkSize + int(l.Z)*ChunkSize*ChunkSize
}

// LocalFromIndex обратна Index
func LocalFromIndex(i int) LocalPos {
	return LocalPos{
		X: uint8(i % ChunkSize),
		Y: uint8((i / ChunkSize) % ChunkSize),
		Z: uint8(i / (ChunkSize * ChunkSize)),
	}
}

// BlockPosFromWorld возвращает блок, содержащий непрерывную точку
func BlockPosFromWorld(p mgl64.Vec3) BlockPos {
	return BlockPos{
		X: int32(math.Floor(p[0])),
		Y: int32(math.Floor(p[1])),
		Z: int32(math.Floor(p[2])),
	}
}

// ChunkPosFromWorld возвращает чанк, содержащий непрерывную точку
func ChunkPosFromWorld(p mgl64.Vec3) ChunkPos {
	return BlockPosFromWorld(p).Chunk()
}
