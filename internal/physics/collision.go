package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// AABB описывает выровненный по осям ограничивающий параллелепипед
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// NewAABB создаёт коллайдер по центру и размеру
func NewAABB(center, size mgl64.Vec3) AABB {
	half := size.Mul(0.5)
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// BlockAABB возвращает единичный куб ячейки с минимальным углом corner
func BlockAABB(corner mgl64.Vec3) AABB {
	return AABB{Min: corner, Max: corner.Add(mgl64.Vec3{1, 1, 1})}
}

// Center возвращает центр коллайдера
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extend растягивает коллайдер в направлении смещения v (заметаемый объём)
func (b AABB) Extend(v mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if v[i] < 0 {
			b.Min[i] += v[i]
		} else {
			b.Max[i] += v[i]
		}
	}
	return b
}

// Translate сдвигает коллайдер на v
func (b AABB) Translate(v mgl64.Vec3) AABB {
	return AABB{Min: b.Min.Add(v), Max: b.Max.Add(v)}
}

// IntersectsWith проверяет строгое пересечение двух коллайдеров
func (b AABB) IntersectsWith(o AABB) bool {
	return b.Min[0] < o.Max[0] && b.Max[0] > o.Min[0] &&
		b.Min[1] < o.Max[1] && b.Max[1] > o.Min[1] &&
		b.Min[2] < o.Max[2] && b.Max[2] > o.Min[2]
}

// overlapsOn проверяет пересечение проекций на двух осях, отличных от axis
func (b AABB) overlapsOn(o AABB, axis int) bool {
	for i := 0; i < 3; i++ {
		if i == axis {
			continue
		}
		if !(o.Max[i] > b.Min[i] && o.Min[i] < b.Max[i]) {
			return false
		}
	}
	return true
}

// axisOffset ограничивает смещение delta коллайдера b по оси axis так, чтобы он не вошёл в o
func (b AABB) axisOffset(o AABB, delta float64, axis int) float64 {
	if !b.overlapsOn(o, axis) {
		return delta
	}

	if delta > 0 && b.Max[axis] <= o.Min[axis] {
		if d := o.Min[axis] - b.Max[axis]; d < delta {
			delta = d
		}
	} else if delta < 0 && b.Min[axis] >= o.Max[axis] {
		if d := o.Max[axis] - b.Min[axis]; d > delta {
			delta = d
		}
	}
	return delta
}

// XOffset возвращает допустимое смещение по X относительно препятствия o
func (b AABB) XOffset(o AABB, deltaX float64) float64 {
	return b.axisOffset(o, deltaX, 0)
}

// YOffset возвращает допустимое смещение по Y относительно препятствия o
func (b AABB) YOffset(o AABB, deltaY float64) float64 {
	return b.axisOffset(o, deltaY, 1)
}

// ZOffset возвращает допустимое смещение по Z относительно препятствия o
func (b AABB) ZOffset(o AABB, deltaZ float64) float64 {
	return b.axisOffset(o, deltaZ, 2)
}
