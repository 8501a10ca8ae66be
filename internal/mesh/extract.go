package mesh

import (
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// quadCorner задаёт вершину квада через смещение от минимального угла блока и UV
type quadCorner struct {
	offset mgl32.Vec3
	uv     mgl32.Vec2
}

// Порядок индексов двух треугольников квада (a, b, c, d)
var (
	windingADC = [6]uint32{0, 3, 2, 2, 1, 0}
	windingABC = [6]uint32{0, 1, 2, 2, 3, 0}
)

// quadTable задаёт углы (a, b, c, d) и порядок обхода для каждой грани.
// Треугольники обходятся против часовой стрелки, если смотреть снаружи.
var quadTable = [6]struct {
	corners [4]quadCorner
	winding [6]uint32
}{
	vec.Left: {
		corners: [4]quadCorner{
			{mgl32.Vec3{0, 0, 0}, mgl32.Vec2{0, 1}},
			{mgl32.Vec3{0, 1, 0}, mgl32.Vec2{0, 0}},
			{mgl32.Vec3{0, 1, 1}, mgl32.Vec2{1, 0}},
			{mgl32.Vec3{0, 0, 1}, mgl32.Vec2{1, 1}},
		},
		winding: windingADC,
	},
	vec.Right: {
		corners: [4]quadCorner{
			{mgl32.Vec3{1, 0, 0}, mgl32.Vec2{0, 1}},
			{mgl32.Vec3{1, 1, 0}, mgl32.Vec2{0, 0}},
			{mgl32.Vec3{1, 1, 1}, mgl32.Vec2{1, 0}},
			{mgl32.Vec3{1, 0, 1}, mgl32.Vec2{1, 1}},
		},
		winding: windingABC,
	},
	vec.Top: {
		corners: [4]quadCorner{
			{mgl32.Vec3{0, 1, 0}, mgl32.Vec2{0, 0}},
			{mgl32.Vec3{1, 1, 0}, mgl32.Vec2{0, 1}},
			{mgl32.Vec3{1, 1, 1}, mgl32.Vec2{1, 1}},
			{mgl32.Vec3{0, 1, 1}, mgl32.Vec2{1, 0}},
		},
		winding: windingADC,
	},
	vec.Bottom: {
		corners: [4]quadCorner{
			{mgl32.Vec3{0, 0, 0}, mgl32.Vec2{0, 0}},
			{mgl32.Vec3{1, 0, 0}, mgl32.Vec2{0, 1}},
			{mgl32.Vec3{1, 0, 1}, mgl32.Vec2{1, 1}},
			{mgl32.Vec3{0, 0, 1}, mgl32.Vec2{1, 0}},
		},
		winding: windingABC,
	},
	vec.Front: {
		corners: [4]quadCorner{
			{mgl32.Vec3{0, 0, 1}, mgl32.Vec2{0, 1}},
			{mgl32.Vec3{1, 0, 1}, mgl32.Vec2{1, 1}},
			{mgl32.Vec3{1, 1, 1}, mgl32.Vec2{1, 0}},
			{mgl32.Vec3{0, 1, 1}, mgl32.Vec2{0, 0}},
		},
		winding: windingABC,
	},
	vec.Back: {
		corners: [4]quadCorner{
			{mgl32.Vec3{0, 0, 0}, mgl32.Vec2{0, 1}},
			{mgl32.Vec3{1, 0, 0}, mgl32.Vec2{1, 1}},
			{mgl32.Vec3{1, 1, 0}, mgl32.Vec2{1, 0}},
			{mgl32.Vec3{0, 1, 0}, mgl32.Vec2{0, 0}},
		},
		winding: windingADC,
	},
}

// AddQuad добавляет грань f блока id с минимальным углом в origin
func (m *Mesh) AddQuad(origin mgl32.Vec3, f vec.Face, id block.BlockID) {
	q := &quadTable[f]
	normal := f.Normal()
	material := id.FaceMaterial(f)

	var idx [4]uint32
	for i, c := range q.corners {
		idx[i] = m.Vertex(origin.Add(c.offset), normal, c.uv, material)
	}
	w := q.winding
	m.Triangles(idx[w[0]], idx[w[1]], idx[w[2]], idx[w[3]], idx[w[4]], idx[w[5]])
}

// visibleFaces возвращает маску видимых граней блока (x, y, z)
func visibleFaces(d *world.ChunkData, e *AdjacentEdges, x, y, z int) [6]bool {
	const last = vec.ChunkSize - 1
	var out [6]bool

	if x == 0 {
		out[vec.Left] = !e.Filled(vec.Left, y, z)
	} else {
		out[vec.Left] = d.At(x-1, y, z) == block.AirBlockID
	}
	if x == last {
		out[vec.Right] = !e.Filled(vec.Right, y, z)
	} else {
		out[vec.Right] = d.At(x+1, y, z) == block.AirBlockID
	}
	if y == last {
		out[vec.Top] = !e.Filled(vec.Top, x, z)
	} else {
		out[vec.Top] = d.At(x, y+1, z) == block.AirBlockID
	}
	if y == 0 {
		out[vec.Bottom] = !e.Filled(vec.Bottom, x, z)
	} else {
		out[vec.Bottom] = d.At(x, y-1, z) == block.AirBlockID
	}
	if z == last {
		out[vec.Front] = !e.Filled(vec.Front, x, y)
	} else {
		out[vec.Front] = d.At(x, y, z+1) == block.AirBlockID
	}
	if z == 0 {
		out[vec.Back] = !e.Filled(vec.Back, x, y)
	} else {
		out[vec.Back] = d.At(x, y, z-1) == block.AirBlockID
	}

	return out
}

// Extract строит геометрию видимых граней чанка. Грань видима, если соседняя
// ячейка пуста; на границе чанка решение принимается по снимку соседей.
func Extract(d *world.ChunkData, edges *AdjacentEdges) *Mesh {
	if edges == nil {
		edges = SolidEdges()
	}
	m := NewMesh(0)

	for x := 0; x < vec.ChunkSize; x++ {
		for y := 0; y < vec.ChunkSize; y++ {
			for z := 0; z < vec.ChunkSize; z++ {
				id := d.At(x, y, z)
				if id == block.AirBlockID {
					continue
				}

				faces := visibleFaces(d, edges, x, y, z)
				origin := mgl32.Vec3{float32(x), float32(y), float32(z)}
				for _, f := range vec.Faces {
					if faces[f] {
						m.AddQuad(origin, f, id)
					}
				}
			}
		}
	}

	return m
}

// ExtractChunk строит геометрию чанка под его блокировкой на чтение
func ExtractChunk(c *world.Chunk, edges *AdjacentEdges) *Mesh {
	var m *Mesh
	c.Read(func(d *world.ChunkData) {
		m = Extract(d, edges)
	})
	return m
}
