package vec

import "github.com/go-gl/mathgl/mgl32"

// Face обозначает одну из шести граней куба
type Face uint8

const (
	Left   Face = iota // -X
	Right              // +X
	Top                // +Y
	Bottom             // -Y
	Front              // +Z
	Back               // -Z
)

// Faces перечисляет грани в каноническом порядке
var Faces = [6]Face{Left, Right, Top, Bottom, Front, Back}

var faceOffsets = [6]BlockPos{
	Left:   {X: -1},
	Right:  {X: 1},
	Top:    {Y: 1},
	Bottom: {Y: -1},
	Front:  {Z: 1},
	Back:   {Z: -1},
}

var faceNames = [6]string{"left", "right", "top", "bottom", "front", "back"}

// Offset возвращает единичное смещение в направлении грани
func (f Face) Offset() BlockPos {
	return faceOffsets[f]
}

// Normal возвращает внешнюю нормаль грани
func (f Face) Normal() mgl32.Vec3 {
	o := faceOffsets[f]
	return mgl32.Vec3{float32(o.X), float32(o.Y), float32(o.Z)}
}

// Opposite возвращает противоположную грань
func (f Face) Opposite() Face {
	return f ^ 1
}

func (f Face) String() string {
	if int(f) < len(faceNames) {
		return faceNames[f]
	}
	return "unknown"
}
