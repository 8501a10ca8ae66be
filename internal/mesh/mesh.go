package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh хранит геометрию поверхности чанка: список треугольников, координаты вершин
// относительно начала чанка, материал (слой текстуры) на каждую вершину.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Materials []uint32
	Indices   []uint32
}

// NewMesh создаёт пустую mesh с запасом под faces граней
func NewMesh(faces int) *Mesh {
	return &Mesh{
		Positions: make([]mgl32.Vec3, 0, faces*4),
		Normals:   make([]mgl32.Vec3, 0, faces*4),
		UVs:       make([]mgl32.Vec2, 0, faces*4),
		Materials: make([]uint32, 0, faces*4),
		Indices:   make([]uint32, 0, faces*6),
	}
}

// Vertex добавляет вершину и возвращает её индекс
func (m *Mesh) Vertex(pos, normal mgl32.Vec3, uv mgl32.Vec2, material uint32) uint32 {
	idx := uint32(len(m.Positions))
	m.Positions = append(m.Positions, pos)
	m.Normals = append(m.Normals, normal)
	m.UVs = append(m.UVs, uv)
	m.Materials = append(m.Materials, material)
	return idx
}

// Triangles добавляет индексы треугольников
func (m *Mesh) Triangles(idx ...uint32) {
	m.Indices = append(m.Indices, idx...)
}

// VertexCount возвращает количество вершин
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// FaceCount возвращает количество квадов
func (m *Mesh) FaceCount() int {
	return len(m.Indices) / 6
}

// IsEmpty сообщает, что в mesh нет ни одной вершины
func (m *Mesh) IsEmpty() bool {
	return len(m.Positions) == 0
}

// Collider описывает треугольную сетку для физики
type Collider struct {
	Vertices []mgl32.Vec3
	Indices  []uint32
}

// Collider строит коллайдер по геометрии. Для пустой mesh возвращает nil.
func (m *Mesh) Collider() *Collider {
	if m.IsEmpty() {
		return nil
	}
	c := &Collider{
		Vertices: make([]mgl32.Vec3, len(m.Positions)),
		Indices:  make([]uint32, len(m.Indices)),
	}
	copy(c.Vertices, m.Positions)
	copy(c.Indices, m.Indices)
	return c
}

// TriangleCount возвращает количество треугольников коллайдера
func (c *Collider) TriangleCount() int {
	return len(c.Indices) / 3
}
