package block

import "github.com/annel0/voxel-engine/internal/vec"

// BlockID представляет идентификатор блока. AirBlockID означает пустую ячейку,
// остальные значения совпадают с байтом, который хранится в закодированном чанке
// (код вида + 1).
type BlockID uint8

// Константы ID блоков
const (
	AirBlockID   BlockID = iota // 0 - пусто
	DirtBlockID                 // 1
	GrassBlockID                // 2
	RockBlockID                 // 3
	SandBlockID                 // 4
)

// Descriptor описывает вид блока: имя, твёрдость и индексы материалов граней.
// Материал грани выбирается по таблице, а не через поведение блока.
type Descriptor struct {
	Name  string
	Solid bool
	// Faces задаёт индекс материала (слоя текстурного массива) для каждой грани в порядке vec.Faces
	Faces [6]uint32
}

var registry = make(map[BlockID]Descriptor)

// Register добавляет описание блока в регистр. Вызывается только при инициализации пакета.
func Register(id BlockID, d Descriptor) {
	registry[id] = d
}

// Get возвращает описание для указанного ID
func Get(id BlockID) (Descriptor, bool) {
	d, exists := registry[id]
	return d, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	if id == AirBlockID {
		return true
	}
	_, exists := registry[id]
	return exists
}

// IsSolid возвращает true для заполненных ячеек
func (id BlockID) IsSolid() bool {
	if id == AirBlockID {
		return false
	}
	d, ok := registry[id]
	return ok && d.Solid
}

// FaceMaterial возвращает индекс материала грани f
func (id BlockID) FaceMaterial(f vec.Face) uint32 {
	return registry[id].Faces[f]
}

// String возвращает имя блока
func (id BlockID) String() string {
	if id == AirBlockID {
		return "Air"
	}
	if d, ok := registry[id]; ok {
		return d.Name
	}
	return "Unknown"
}

func uniform(m uint32) [6]uint32 {
	return [6]uint32{m, m, m, m, m, m}
}

func init() {
	Register(DirtBlockID, Descriptor{Name: "Dirt", Solid: true, Faces: uniform(0)})

	// трава: верх 2, низ как у земли (0), бока 1
	grass := uniform(1)
	grass[vec.Top] = 2
	grass[vec.Bottom] = 0
	Register(GrassBlockID, Descriptor{Name: "Grass", Solid: true, Faces: grass})

	Register(RockBlockID, Descriptor{Name: "Rock", Solid: true, Faces: uniform(3)})
	Register(SandBlockID, Descriptor{Name: "Sand", Solid: true, Faces: uniform(4)})
}
