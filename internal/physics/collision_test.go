package physics

import (
	"testing"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockSet реализует BlockSource для тестов
type blockSet map[vec.BlockPos]bool

func (s blockSet) Solid(p vec.BlockPos) bool {
	return s[p]
}

func floor(size int32) blockSet {
	s := blockSet{}
	for x := -size; x <= size; x++ {
		for z := -size; z <= size; z++ {
			s[vec.BlockPos{X: x, Y: 0, Z: z}] = true
		}
	}
	return s
}

func TestAABBBasics(t *testing.T) {
	b := NewAABB(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 4, 2})
	assert.Equal(t, mgl64.Vec3{-1, -2, -1}, b.Min)
	assert.Equal(t, mgl64.Vec3{1, 2, 1}, b.Max)
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, b.Center())

	e := b.Extend(mgl64.Vec3{-3, 5, 0})
	assert.Equal(t, mgl64.Vec3{-4, -2, -1}, e.Min)
	assert.Equal(t, mgl64.Vec3{1, 7, 1}, e.Max)

	moved := b.Translate(mgl64.Vec3{10, 0, 0})
	assert.False(t, b.IntersectsWith(moved))
	assert.True(t, b.IntersectsWith(b.Translate(mgl64.Vec3{1.5, 0, 0})))
	assert.False(t, b.IntersectsWith(b.Translate(mgl64.Vec3{2, 0, 0})), "касание не является пересечением")
}

func TestAxisOffsets(t *testing.T) {
	body := AABB{Min: mgl64.Vec3{0, 2, 0}, Max: mgl64.Vec3{1, 3, 1}}
	blockBelow := BlockAABB(mgl64.Vec3{0, 0, 0})

	assert.InDelta(t, -1.0, body.YOffset(blockBelow, -5), 1e-12, "падение ограничено верхом блока")
	assert.InDelta(t, -0.5, body.YOffset(blockBelow, -0.5), 1e-12, "короткое смещение не ограничивается")
	assert.InDelta(t, 4.0, body.YOffset(blockBelow, 4), 1e-12, "движение от блока не ограничивается")

	side := BlockAABB(mgl64.Vec3{3, 2, 0})
	assert.InDelta(t, 2.0, body.XOffset(side, 10), 1e-12)
	assert.InDelta(t, -10.0, body.XOffset(side, -10), 1e-12)

	// без перекрытия по другим осям препятствие не учитывается
	far := BlockAABB(mgl64.Vec3{3, 2, 5})
	assert.InDelta(t, 10.0, body.XOffset(far, 10), 1e-12)

	front := BlockAABB(mgl64.Vec3{0, 2, -4})
	assert.InDelta(t, -3.0, body.ZOffset(front, -8), 1e-12)
}

func TestResolveFallingOntoBlock(t *testing.T) {
	src := blockSet{{X: 0, Y: 0, Z: 0}: true}
	box := AABB{Min: mgl64.Vec3{0.2, 3, 0.2}, Max: mgl64.Vec3{0.8, 4.8, 0.8}}

	disp, vel := Resolve(src, box, mgl64.Vec3{0, -10, 0}, mgl64.Vec3{0, -5, 0})
	assert.InDelta(t, -2+Margin, disp[1], 1e-12)
	assert.Equal(t, 0.0, vel[1])
}

func TestResolveNoCollision(t *testing.T) {
	src := blockSet{}
	box := NewAABB(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{1, 1, 1})
	disp, vel := Resolve(src, box, mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0.1, 0.2, 0.3})
	assert.Equal(t, mgl64.Vec3{0.1, 0.2, 0.3}, disp)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, vel)
}

func TestResolveMarginNeverFlipsSign(t *testing.T) {
	src := blockSet{{X: 0, Y: 0, Z: 0}: true}
	// тело стоит вплотную на блоке
	box := AABB{Min: mgl64.Vec3{0.2, 1, 0.2}, Max: mgl64.Vec3{0.8, 2, 0.8}}

	disp, vel := Resolve(src, box, mgl64.Vec3{0, -3, 0}, mgl64.Vec3{0, -0.2, 0})
	assert.Equal(t, 0.0, disp[1], "смещение не уходит за ноль")
	assert.Equal(t, 0.0, vel[1])
}

func TestResolveWallKeepsOtherAxes(t *testing.T) {
	src := blockSet{}
	for y := int32(0); y < 4; y++ {
		src[vec.BlockPos{X: 2, Y: y, Z: 0}] = true
	}
	box := AABB{Min: mgl64.Vec3{0.5, 1, 0.2}, Max: mgl64.Vec3{1.5, 2, 0.8}}

	disp, vel := Resolve(src, box, mgl64.Vec3{8, 0, 2}, mgl64.Vec3{1, 0, 0.1})
	assert.InDelta(t, 0.5-Margin, disp[0], 1e-12)
	assert.Equal(t, 0.0, vel[0])
	assert.InDelta(t, 0.1, disp[2], 1e-12, "скольжение вдоль стены сохраняется")
	assert.Equal(t, 2.0, vel[2])
}

func TestResolveNeverPenetrates(t *testing.T) {
	src := floor(4)
	src[vec.BlockPos{X: 1, Y: 1, Z: 0}] = true
	src[vec.BlockPos{X: 0, Y: 3, Z: 1}] = true

	displacements := []mgl64.Vec3{
		{0, -3, 0}, {2, -1, 0}, {-1, -2, 1.5}, {0.7, 2, 0.9}, {1.5, -0.5, -1.5}, {0, 4, 0},
	}
	for _, d := range displacements {
		box := AABB{Min: mgl64.Vec3{0.1, 1.5, 0.1}, Max: mgl64.Vec3{0.7, 2.4, 0.7}}
		box = box.Translate(mgl64.Vec3{-0.5, 0, 0})
		require.Empty(t, overlapping(src, box), "исходное положение свободно")

		disp, _ := Resolve(src, box, d, d)
		moved := box.Translate(disp)
		assert.Empty(t, overlapping(src, moved), "смещение %v привело к пересечению", d)
	}
}

func overlapping(src blockSet, box AABB) []vec.BlockPos {
	var out []vec.BlockPos
	for p := range src {
		if BlockAABB(p.Vec()).IntersectsWith(box) {
			out = append(out, p)
		}
	}
	return out
}

func TestBodyComesToRest(t *testing.T) {
	src := floor(2)
	body := NewBody(mgl64.Vec3{0.5, 4, 0.5}, mgl64.Vec3{0.6, 1.8, 0.6})

	for i := 0; i < 200; i++ {
		body.Step(src, 1.0/60, DefaultParams())
	}

	assert.True(t, body.OnGround())
	assert.Equal(t, 0.0, body.Velocity[1])
	assert.InDelta(t, 1+Margin, body.AABB().Min[1], 1e-9, "тело лежит на верхней грани блока с зазором")
}

func TestBodyHorizontalDamping(t *testing.T) {
	src := floor(50)
	body := NewBody(mgl64.Vec3{0.5, 1.9011, 0.5}, mgl64.Vec3{0.6, 1.8, 0.6})
	body.Velocity = mgl64.Vec3{5, 0, 0}

	body.Step(src, 0.05, DefaultParams())
	assert.InDelta(t, 5*(1-0.05*9), body.Velocity[0], 1e-9)
	assert.Greater(t, body.Position[0], 0.5)

	for i := 0; i < 100; i++ {
		body.Step(src, 0.05, DefaultParams())
	}
	assert.InDelta(t, 0, body.Velocity[0], 1e-9)
}
