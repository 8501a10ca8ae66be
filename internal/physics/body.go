package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Params задаёт силы, действующие на тела
type Params struct {
	Gravity  float64 // Ускорение свободного падения
	Friction float64 // Горизонтальное затухание скорости в секунду
}

// DefaultParams возвращает параметры по умолчанию
func DefaultParams() Params {
	return Params{Gravity: 9.81 * 2.5, Friction: 9}
}

// Body описывает тело с коллайдером; Position задаёт центр коллайдера размера Size
type Body struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Size     mgl64.Vec3

	onGround bool
}

// NewBody создаёт тело в указанной позиции
func NewBody(position, size mgl64.Vec3) *Body {
	return &Body{Position: position, Size: size}
}

// AABB возвращает текущий коллайдер тела
func (b *Body) AABB() AABB {
	return NewAABB(b.Position, b.Size)
}

// OnGround сообщает, стоит ли тело на блоке после последнего шага
func (b *Body) OnGround() bool {
	return b.onGround
}

// Step продвигает тело на dt секунд: гравитация, разрешение столкновений,
// перемещение и горизонтальное затухание скорости.
func (b *Body) Step(src BlockSource, dt float64, p Params) {
	b.Velocity[1] -= p.Gravity * dt

	displacement := b.Velocity.Mul(dt)
	falling := displacement[1] < 0

	resolved, vel := Resolve(src, b.AABB(), b.Velocity, displacement)

	if falling && vel[1] == 0 {
		b.onGround = true
	} else if resolved[1] != 0 {
		b.onGround = false
	}

	b.Position = b.Position.Add(resolved)

	damping := math.Max(1-dt*p.Friction, 0)
	vel[0] *= damping
	vel[2] *= damping
	b.Velocity = vel
}
