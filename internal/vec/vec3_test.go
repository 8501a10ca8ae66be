package vec

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockPosChunkAndLocal(t *testing.T) {
	cases := []struct {
		pos   BlockPos
		chunk ChunkPos
		local LocalPos
	}{
		{BlockPos{0, 0, 0}, ChunkPos{0, 0, 0}, LocalPos{0, 0, 0}},
		{BlockPos{31, 32, 33}, ChunkPos{0, 1, 1}, LocalPos{31, 0, 1}},
		{BlockPos{-1, -32, -33}, ChunkPos{-1, -1, -2}, LocalPos{31, 0, 31}},
		{BlockPos{-64, 63, -31}, ChunkPos{-2, 1, -1}, LocalPos{0, 31, 1}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.chunk, tc.pos.Chunk(), "чанк для %v", tc.pos)
		assert.Equal(t, tc.local, tc.pos.Local(), "локальная позиция для %v", tc.pos)
		assert.Equal(t, tc.pos, tc.pos.Chunk().Block(tc.pos.Local()), "обратная сборка для %v", tc.pos)
	}
}

func TestRoundTripRange(t *testing.T) {
	for x := int32(-70); x <= 70; x += 7 {
		for y := int32(-70); y <= 70; y += 5 {
			p := BlockPos{X: x, Y: y, Z: -x}
			l := p.Local()
			require.Less(t, l.X, uint8(32))
			require.Less(t, l.Y, uint8(32))
			require.Less(t, l.Z, uint8(32))
			require.Equal(t, p, p.Chunk().Block(l))
		}
	}
}

func TestFloorDivAndEuclidMod(t *testing.T) {
	assert.Equal(t, int32(-1), FloorDiv(-1, 32))
	assert.Equal(t, int32(0), FloorDiv(31, 32))
	assert.Equal(t, int32(-2), FloorDiv(-33, 32))
	assert.Equal(t, int32(31), EuclidMod(-1, 32))
	assert.Equal(t, int32(0), EuclidMod(-32, 32))
}

func TestLocalIndex(t *testing.T) {
	assert.Equal(t, 0, LocalPos{}.Index())
	assert.Equal(t, 1, LocalPos{X: 1}.Index())
	assert.Equal(t, 32, LocalPos{Y: 1}.Index())
	assert.Equal(t, 1024, LocalPos{Z: 1}.Index())
	assert.Equal(t, ChunkVolume-1, LocalPos{31, 31, 31}.Index())

	for _, i := range []int{0, 5, 33, 1025, 32767} {
		assert.Equal(t, i, LocalFromIndex(i).Index())
	}
}

func TestChunksWithinRadius(t *testing.T) {
	t.Run("radius zero", func(t *testing.T) {
		c := ChunkPos{3, -2, 7}
		assert.Equal(t, []ChunkPos{c}, ChunksWithinRadius(c, 0))
	})

	t.Run("radius one", func(t *testing.T) {
		got := ChunksWithinRadius(ChunkPos{}, 1)
		require.Len(t, got, 7)
		assert.Equal(t, ChunkPos{}, got[0])
		for _, p := range got[1:] {
			assert.Equal(t, int64(1), p.DistanceSq(ChunkPos{}))
		}
	})

	t.Run("sorted and bounded", func(t *testing.T) {
		center := ChunkPos{10, 0, -4}
		got := ChunksWithinRadius(center, 3)
		for i, p := range got {
			assert.LessOrEqual(t, p.DistanceSq(center), int64(9))
			if i > 0 {
				assert.LessOrEqual(t, got[i-1].DistanceSq(center), p.DistanceSq(center))
			}
		}
		assert.Equal(t, got, ChunksWithinRadius(center, 3), "результат детерминирован")
	})
}

func TestAdjacentAndFaces(t *testing.T) {
	c := ChunkPos{1, 2, 3}
	adj := c.Adjacent()
	assert.Equal(t, ChunkPos{0, 2, 3}, adj[Left])
	assert.Equal(t, ChunkPos{2, 2, 3}, adj[Right])
	assert.Equal(t, ChunkPos{1, 3, 3}, adj[Top])
	assert.Equal(t, ChunkPos{1, 1, 3}, adj[Bottom])
	assert.Equal(t, ChunkPos{1, 2, 4}, adj[Front])
	assert.Equal(t, ChunkPos{1, 2, 2}, adj[Back])

	for _, f := range Faces {
		assert.Equal(t, c, c.Neighbour(f).Neighbour(f.Opposite()))
	}
}

func TestFromWorld(t *testing.T) {
	assert.Equal(t, BlockPos{-1, 0, 2}, BlockPosFromWorld(mgl64.Vec3{-0.5, 0.2, 2.9}))
	assert.Equal(t, ChunkPos{-1, 0, 1}, ChunkPosFromWorld(mgl64.Vec3{-0.5, 31.9, 32}))
}

func TestChunkDistanceSqAtInt32Limits(t *testing.T) {
	span := int64(1<<31) + 1

	d := ChunkPos{X: 1 << 30}.DistanceSq(ChunkPos{X: -(1 << 30) - 1})
	assert.Equal(t, span*span, d)

	d = ChunkPos{Z: math.MinInt32}.DistanceSq(ChunkPos{Z: 1})
	assert.Equal(t, span*span, d)

	d = ChunkPos{X: math.MaxInt32, Y: math.MinInt32}.DistanceSq(ChunkPos{X: math.MaxInt32, Y: math.MinInt32})
	assert.Zero(t, d)
}
