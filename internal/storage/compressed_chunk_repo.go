package storage

import (
	"context"
	"fmt"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/klauspost/compress/zstd"
)

// CompressedChunkRepo сжимает блобы zstd поверх другого ChunkRepo.
// Полезно для SQL и Redis, где размер значения влияет на сеть и диск.
type CompressedChunkRepo struct {
	inner ChunkRepo
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressedChunkRepo оборачивает inner. Encoder и Decoder безопасны для
// одновременного использования через EncodeAll/DecodeAll.
func NewCompressedChunkRepo(inner ChunkRepo) (*CompressedChunkRepo, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &CompressedChunkRepo{inner: inner, enc: enc, dec: dec}, nil
}

// Save сжимает и сохраняет блоб
func (r *CompressedChunkRepo) Save(ctx context.Context, pos vec.ChunkPos, data []byte) error {
	return r.inner.Save(ctx, pos, r.enc.EncodeAll(data, nil))
}

// Load загружает и распаковывает блоб
func (r *CompressedChunkRepo) Load(ctx context.Context, pos vec.ChunkPos) ([]byte, bool, error) {
	raw, found, err := r.inner.Load(ctx, pos)
	if err != nil || !found {
		return nil, found, err
	}

	data, err := r.dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: распаковка чанка %v: %v", ErrCorruptRecord, pos, err)
	}
	return data, true, nil
}

// Delete удаляет чанк
func (r *CompressedChunkRepo) Delete(ctx context.Context, pos vec.ChunkPos) error {
	return r.inner.Delete(ctx, pos)
}

// Close закрывает кодеки и вложенное хранилище
func (r *CompressedChunkRepo) Close() error {
	r.enc.Close()
	r.dec.Close()
	return r.inner.Close()
}
