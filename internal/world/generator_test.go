package world

import (
	"sync"
	"testing"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorDeterministic(t *testing.T) {
	a := NewWorldGenerator(1234, DefaultGeneratorParams())
	b := NewWorldGenerator(1234, DefaultGeneratorParams())

	for _, pos := range []vec.ChunkPos{{X: 0, Y: 1, Z: 0}, {X: -3, Y: 2, Z: 5}, {X: 7, Y: 1, Z: -9}} {
		assert.Equal(t, a.GenerateChunk(pos).Serialize(), b.GenerateChunk(pos).Serialize(), "чанк %v", pos)
	}
}

func TestGeneratorSeedMatters(t *testing.T) {
	a := NewWorldGenerator(1, DefaultGeneratorParams())
	b := NewWorldGenerator(2, DefaultGeneratorParams())

	same := true
	for x := int32(0); x < 256 && same; x += 16 {
		if a.SurfaceHeight(x, x*3) != b.SurfaceHeight(x, x*3) {
			same = false
		}
	}
	assert.False(t, same, "разные сиды дают разный рельеф")
}

func TestGeneratorColumnLayers(t *testing.T) {
	params := DefaultGeneratorParams()
	params.SandThreshold = 2 // песка нет
	g := NewWorldGenerator(99, params)

	surface := g.SurfaceHeight(10, 20)
	assert.Equal(t, block.AirBlockID, g.BlockAt(vec.BlockPos{X: 10, Y: surface + 1, Z: 20}))
	assert.Equal(t, block.GrassBlockID, g.BlockAt(vec.BlockPos{X: 10, Y: surface, Z: 20}))
	assert.Equal(t, block.DirtBlockID, g.BlockAt(vec.BlockPos{X: 10, Y: surface - 1, Z: 20}))
	assert.Equal(t, block.DirtBlockID, g.BlockAt(vec.BlockPos{X: 10, Y: surface - params.DirtDepth, Z: 20}))
	assert.Equal(t, block.RockBlockID, g.BlockAt(vec.BlockPos{X: 10, Y: surface - params.DirtDepth - 1, Z: 20}))
}

func TestGeneratorSandWhenDry(t *testing.T) {
	params := DefaultGeneratorParams()
	params.SandThreshold = -1 // вся суша покрыта песком
	g := NewWorldGenerator(5, params)

	surface := g.SurfaceHeight(0, 0)
	assert.Equal(t, block.SandBlockID, g.BlockAt(vec.BlockPos{Y: surface}))
	assert.Equal(t, block.SandBlockID, g.BlockAt(vec.BlockPos{Y: surface - 1}))
	assert.Equal(t, block.RockBlockID, g.BlockAt(vec.BlockPos{Y: surface - 10}))
}

func TestGeneratorClimateUsesAllOctaves(t *testing.T) {
	layered := DefaultGeneratorParams()
	layered.Climate.Octaves = 6
	layered.Climate.Amplitude = 50
	layered.Climate.Lacunarity = 3

	a := NewWorldGenerator(9, DefaultGeneratorParams())
	b := NewWorldGenerator(9, layered)

	differ, sand := 0, 0
	for x := int32(-2048); x < 2048; x += 8 {
		for z := int32(-2048); z < 2048; z += 8 {
			if a.isDry(x, z) {
				sand++
			}
			if a.isDry(x, z) != b.isDry(x, z) {
				differ++
			}
		}
	}
	require.Positive(t, sand, "при настройках по умолчанию песок встречается")
	assert.Positive(t, differ, "октавы климата меняют распределение песка")
}

func TestGenerateChunkMatchesBlockAt(t *testing.T) {
	g := NewWorldGenerator(42, DefaultGeneratorParams())
	surface := g.SurfaceHeight(5, 5)
	pos := vec.BlockPos{X: 5, Y: surface, Z: 5}.Chunk()

	data := g.GenerateChunk(pos)
	for z := 0; z < vec.ChunkSize; z += 7 {
		for y := 0; y < vec.ChunkSize; y += 3 {
			for x := 0; x < vec.ChunkSize; x += 5 {
				l := vec.LocalPos{X: uint8(x), Y: uint8(y), Z: uint8(z)}
				require.Equal(t, g.BlockAt(pos.Block(l)), data.Block(l), "ячейка %v", l)
			}
		}
	}
}

func TestGenerateChunkHeights(t *testing.T) {
	g := NewWorldGenerator(3, DefaultGeneratorParams())

	// уровень моря 60, амплитуда рельефа ограничена ~28 блоками
	assert.True(t, g.GenerateChunk(vec.ChunkPos{Y: 4}).IsEmpty(), "чанк y=128..159 выше любой поверхности")
	deep := g.GenerateChunk(vec.ChunkPos{Y: -1})
	assert.Equal(t, vec.ChunkVolume, deep.Count(), "глубокий чанк заполнен целиком")
}

func TestGenerateChunkConcurrent(t *testing.T) {
	g := NewWorldGenerator(11, DefaultGeneratorParams())
	pos := vec.ChunkPos{X: 2, Y: 1, Z: -1}
	want := g.GenerateChunk(pos).Serialize()

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = g.GenerateChunk(pos).Serialize()
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, want, r)
	}
}
