package mesh

import (
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
)

const planeSize = vec.ChunkSize * vec.ChunkSize

// AdjacentEdges хранит снимок граничных плоскостей шести соседей (true, если
// соседняя ячейка занята). Отсутствующий сосед считается сплошным, чтобы
// на границе с незагруженной областью не строились грани.
type AdjacentEdges struct {
	planes [6][planeSize]bool
}

func planeIndex(a, b int) int {
	return a + b*vec.ChunkSize
}

// SolidEdges возвращает снимок, в котором все соседи сплошные
func SolidEdges() *AdjacentEdges {
	e := &AdjacentEdges{}
	for f := range e.planes {
		for i := range e.planes[f] {
			e.planes[f][i] = true
		}
	}
	return e
}

// EdgesFrom читает граничные плоскости соседей (порядок vec.Faces, nil, если соседа нет).
// Каждый сосед читается под своей блокировкой на чтение.
func EdgesFrom(neighbours [6]*world.Chunk) *AdjacentEdges {
	e := SolidEdges()
	for _, f := range vec.Faces {
		n := neighbours[f]
		if n == nil {
			continue
		}
		n.Read(func(d *world.ChunkData) {
			e.fillPlane(f, d)
		})
	}
	return e
}

// fillPlane копирует обращённую к нам плоскость соседа по грани f
func (e *AdjacentEdges) fillPlane(f vec.Face, d *world.ChunkData) {
	const last = vec.ChunkSize - 1
	plane := &e.planes[f]

	for b := 0; b < vec.ChunkSize; b++ {
		for a := 0; a < vec.ChunkSize; a++ {
			var id block.BlockID
			switch f {
			case vec.Left:
				id = d.At(last, a, b) // (y, z)
			case vec.Right:
				id = d.At(0, a, b)
			case vec.Top:
				id = d.At(a, 0, b) // (x, z)
			case vec.Bottom:
				id = d.At(a, last, b)
			case vec.Front:
				id = d.At(a, b, 0) // (x, y)
			case vec.Back:
				id = d.At(a, b, last)
			}
			plane[planeIndex(a, b)] = id != block.AirBlockID
		}
	}
}

// Set задаёт значение ячейки плоскости грани f
func (e *AdjacentEdges) Set(f vec.Face, a, b int, filled bool) {
	e.planes[f][planeIndex(a, b)] = filled
}

// Filled сообщает, занята ли ячейка соседа за гранью f
func (e *AdjacentEdges) Filled(f vec.Face, a, b int) bool {
	return e.planes[f][planeIndex(a, b)]
}
