package vec

import "sort"

// ChunksWithinRadius возвращает все чанки куба [center-r, center+r]^3, у которых
// квадрат расстояния до центра не превышает r^2. Результат отсортирован по
// возрастанию расстояния; при равенстве: по X, затем Y, затем Z.
func ChunksWithinRadius(center ChunkPos, r int) []ChunkPos {
	if r < 0 {
		return nil
	}
	rr := int64(r) * int64(r)
	rad := int32(r)

	out := make([]ChunkPos, 0, (2*r+1)*(2*r+1)*(2*r+1))
	for dz := -rad; dz <= rad; dz++ {
		for dy := -rad; dy <= rad; dy++ {
			for dx := -rad; dx <= rad; dx++ {
				p := ChunkPos{X: center.X + dx, Y: center.Y + dy, Z: center.Z + dz}
				if p.DistanceSq(center) <= rr {
					out = append(out, p)
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DistanceSq(center), out[j].DistanceSq(center)
		if di != dj {
			return di < dj
		}
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].Z < out[j].Z
	})
	return out
}
