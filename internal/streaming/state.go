package streaming

import (
	"github.com/annel0/voxel-engine/internal/mesh"
	"github.com/annel0/voxel-engine/internal/vec"
)

// State описывает стадию жизненного цикла чанка в менеджере подгрузки
type State int

const (
	StateUnloaded State = iota // Не отслеживается
	StateLoading               // Загрузка или генерация в работе
	StateDirty                 // Резидентный, геометрия устарела
	StateMeshing               // Резидентный, строится геометрия
	StateClean                 // Резидентный, геометрия актуальна
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateDirty:
		return "dirty"
	case StateMeshing:
		return "meshing"
	case StateClean:
		return "clean"
	default:
		return "unknown"
	}
}

// Resident сообщает, находится ли чанк в уровне
func (s State) Resident() bool {
	return s == StateDirty || s == StateMeshing || s == StateClean
}

// Geometry содержит последнюю построенную геометрию чанка.
// Collider равен nil, если у чанка нет видимых граней.
type Geometry struct {
	Mesh     *mesh.Mesh
	Collider *mesh.Collider
}

// MeshSink получает геометрию для рендера и физики.
// Методы вызываются из потока, вызывающего Tick, без удерживаемых блокировок менеджера.
type MeshSink interface {
	ChunkMeshed(pos vec.ChunkPos, g Geometry)
	ChunkEvicted(pos vec.ChunkPos)
}

// Stats содержит счётчики менеджера подгрузки
type Stats struct {
	Tracked        int
	Resident       int
	Dirty          int
	InFlightLoads  int
	InFlightMeshes int
	PendingSaves   int

	FromStorage uint64
	Generated   uint64
	Repaired    uint64
	MeshesBuilt uint64
	Evicted     uint64
	Saved       uint64
	SaveErrors  uint64
}
