package physics

import (
	"math"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

// Margin задаёт зазор, который остаётся между телом и блоком после столкновения
const Margin = 0.001

// BlockSource сообщает, занята ли ячейка твёрдым блоком
type BlockSource interface {
	Solid(p vec.BlockPos) bool
}

// blockBoxesAround собирает коллайдеры твёрдых ячеек от floor(min) до ceil(max) включительно
func blockBoxesAround(src BlockSource, box AABB) []AABB {
	minX, maxX := int32(math.Floor(box.Min[0])), int32(math.Ceil(box.Max[0]))
	minY, maxY := int32(math.Floor(box.Min[1])), int32(math.Ceil(box.Max[1]))
	minZ, maxZ := int32(math.Floor(box.Min[2])), int32(math.Ceil(box.Max[2]))

	var boxes []AABB
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				p := vec.BlockPos{X: x, Y: y, Z: z}
				if src.Solid(p) {
					boxes = append(boxes, BlockAABB(p.Vec()))
				}
			}
		}
	}
	return boxes
}

// backOff отступает от препятствия на Margin в сторону нуля, не меняя знак
func backOff(clamped, original float64) float64 {
	if original > 0 {
		return math.Max(clamped-Margin, 0)
	}
	return math.Min(clamped+Margin, 0)
}

// resolveAxis ограничивает delta по оси axis всеми препятствиями
func resolveAxis(box AABB, blocks []AABB, delta float64, axis int) (float64, bool) {
	if delta == 0 {
		return 0, false
	}

	clamped := delta
	for _, b := range blocks {
		clamped = box.axisOffset(b, clamped, axis)
	}
	if clamped == delta {
		return delta, false
	}
	return backOff(clamped, delta), true
}

// Resolve ограничивает смещение коллайдера box твёрдыми блоками.
// Оси разрешаются по очереди: Y, затем X, затем Z; каждая следующая ось
// учитывает уже применённое смещение. Компонента скорости по оси, где
// произошло столкновение, обнуляется.
func Resolve(src BlockSource, box AABB, velocity, displacement mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	blocks := blockBoxesAround(src, box.Extend(displacement))
	if len(blocks) == 0 {
		return displacement, velocity
	}

	for _, axis := range [3]int{1, 0, 2} {
		d, hit := resolveAxis(box, blocks, displacement[axis], axis)
		displacement[axis] = d
		if hit {
			velocity[axis] = 0
		}

		var shift mgl64.Vec3
		shift[axis] = d
		box = box.Translate(shift)
	}

	return displacement, velocity
}
