package world

import (
	"math"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/util"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// climateSeedSalt отделяет сид карты климата от сида карты высот
const climateSeedSalt int64 = 0x5eed_c11a_7e

// GeneratorParams задаёт параметры генерации ландшафта
type GeneratorParams struct {
	SeaLevel      int32
	ScaleFactor   float64
	Elevation     util.NoiseParams
	Climate       util.NoiseParams
	ClimateScale  float64
	DirtDepth     int32
	SandThreshold float64
}

// DefaultGeneratorParams возвращает параметры генерации по умолчанию
func DefaultGeneratorParams() GeneratorParams {
	return GeneratorParamsFromConfig(config.Default().Generator)
}

// GeneratorParamsFromConfig переносит параметры из секции generator конфигурации
func GeneratorParamsFromConfig(c config.GeneratorConfig) GeneratorParams {
	return GeneratorParams{
		SeaLevel:      c.SeaLevel,
		ScaleFactor:   c.ScaleFactor,
		Elevation:     c.Elevation,
		Climate:       c.Climate,
		ClimateScale:  c.ClimateScale,
		DirtDepth:     c.DirtDepth,
		SandThreshold: c.SandThreshold,
	}
}

// WorldGenerator генерирует ландшафт мира. Результат зависит только от
// сида, параметров и координат чанка.
type WorldGenerator struct {
	Seed   int64
	Params GeneratorParams

	elevation *util.NoiseMap
	climate   *util.NoiseMap
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(seed int64, params GeneratorParams) *WorldGenerator {
	return &WorldGenerator{
		Seed:      seed,
		Params:    params,
		elevation: util.NewNoiseMap(seed, params.Elevation),
		climate:   util.NewNoiseMap(seed^climateSeedSalt, params.Climate),
	}
}

// SurfaceHeight возвращает высоту верхнего заполненного блока колонки (x, z)
func (wg *WorldGenerator) SurfaceHeight(x, z int32) int32 {
	scale := wg.Params.ScaleFactor
	e := wg.elevation.Value2D(float64(x)/scale, float64(z)/scale)
	return wg.Params.SeaLevel + int32(math.Floor(e))
}

// isDry сообщает, что колонка (x, z) покрыта песком
func (wg *WorldGenerator) isDry(x, z int32) bool {
	scale := wg.Params.ClimateScale
	return wg.climate.Normalized2D(float64(x)/scale, float64(z)/scale) > wg.Params.SandThreshold
}

// BlockAt возвращает блок для абсолютной позиции
func (wg *WorldGenerator) BlockAt(p vec.BlockPos) block.BlockID {
	return wg.columnBlock(p.Y, wg.SurfaceHeight(p.X, p.Z), wg.isDry(p.X, p.Z))
}

func (wg *WorldGenerator) columnBlock(y, surface int32, dry bool) block.BlockID {
	switch {
	case y > surface:
		return block.AirBlockID
	case y == surface:
		if dry {
			return block.SandBlockID
		}
		return block.GrassBlockID
	case y >= surface-wg.Params.DirtDepth:
		if dry {
			return block.SandBlockID
		}
		return block.DirtBlockID
	default:
		return block.RockBlockID
	}
}

// GenerateChunk генерирует чанк по его координатам.
// Безопасен для одновременного вызова из нескольких горутин.
func (wg *WorldGenerator) GenerateChunk(pos vec.ChunkPos) *ChunkData {
	data := NewChunkData()
	origin := pos.Origin()

	// Шум зависит только от (x, z), поэтому считаем его один раз на колонку
	var surface [vec.ChunkSize][vec.ChunkSize]int32
	var dry [vec.ChunkSize][vec.ChunkSize]bool
	maxSurface := int32(math.MinInt32)
	for z := 0; z < vec.ChunkSize; z++ {
		for x := 0; x < vec.ChunkSize; x++ {
			wx, wz := origin.X+int32(x), origin.Z+int32(z)
			surface[x][z] = wg.SurfaceHeight(wx, wz)
			dry[x][z] = wg.isDry(wx, wz)
			if surface[x][z] > maxSurface {
				maxSurface = surface[x][z]
			}
		}
	}

	// Чанк целиком выше поверхности остаётся пустым
	if origin.Y > maxSurface {
		return data
	}

	for z := 0; z < vec.ChunkSize; z++ {
		for y := 0; y < vec.ChunkSize; y++ {
			wy := origin.Y + int32(y)
			for x := 0; x < vec.ChunkSize; x++ {
				id := wg.columnBlock(wy, surface[x][z], dry[x][z])
				if id != block.AirBlockID {
					data.SetBlock(vec.LocalPos{X: uint8(x), Y: uint8(y), Z: uint8(z)}, id)
				}
			}
		}
	}

	return data
}
