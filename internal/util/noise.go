package util

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// Параметры базового шума Перлина
const (
	perlinAlpha = 2.0 // Сглаживание шума
	perlinBeta  = 2.0 // Частота шума
	perlinN     = 1   // Одна октава: октавы суммирует NoiseMap
)

// NoiseMap описывает фрактальный шум как сумму октав шума Перлина с убывающей амплитудой
// и растущей частотой. Perlin после создания только читается, поэтому
// NoiseMap безопасен для одновременного использования из нескольких горутин.
type NoiseMap struct {
	Octaves     int
	Amplitude   float64
	Frequency   float64
	Persistence float64
	Lacunarity  float64

	perlin *perlin.Perlin
}

// NoiseParams задаёт параметры фрактального шума
type NoiseParams struct {
	Octaves     int     `yaml:"octaves"`
	Amplitude   float64 `yaml:"amplitude"`
	Frequency   float64 `yaml:"frequency"`
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`
}

// DefaultElevationParams возвращает параметры карты высот по умолчанию
func DefaultElevationParams() NoiseParams {
	return NoiseParams{
		Octaves:     4,
		Amplitude:   15,
		Frequency:   2,
		Persistence: 0.5,
		Lacunarity:  2,
	}
}

// NewNoiseMap создаёт карту шума с указанным сидом
func NewNoiseMap(seed int64, p NoiseParams) *NoiseMap {
	return &NoiseMap{
		Octaves:     p.Octaves,
		Amplitude:   p.Amplitude,
		Frequency:   p.Frequency,
		Persistence: p.Persistence,
		Lacunarity:  p.Lacunarity,
		perlin:      perlin.NewPerlin(perlinAlpha, perlinBeta, perlinN, seed),
	}
}

// Value2D возвращает значение шума в точке (x, y)
func (m *NoiseMap) Value2D(x, y float64) float64 {
	value := 0.0
	amplitude := m.Amplitude
	frequency := m.Frequency

	for i := 0; i < m.Octaves; i++ {
		value += amplitude * m.perlin.Noise2D(x*frequency, y*frequency)
		amplitude *= m.Persistence
		frequency *= m.Lacunarity
	}

	return value
}

// Normalized2D возвращает фрактальный шум, приведённый к диапазону [0, 1].
// Сумма октав делится на сумму их амплитуд, поэтому результат не зависит
// от Amplitude, а Octaves, Persistence и Lacunarity меняют рисунок поля.
func (m *NoiseMap) Normalized2D(x, y float64) float64 {
	total := 0.0
	amplitude := m.Amplitude
	for i := 0; i < m.Octaves; i++ {
		total += math.Abs(amplitude)
		amplitude *= m.Persistence
	}
	if total == 0 {
		return 0.5
	}

	v := (m.Value2D(x, y)/total + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
