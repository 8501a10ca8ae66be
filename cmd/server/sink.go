package main

import (
	"sync"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/streaming"
	"github.com/annel0/voxel-engine/internal/vec"
)

// colliderSink держит последние коллайдеры чанков вместо сцены рендера
type colliderSink struct {
	mu        sync.Mutex
	colliders map[vec.ChunkPos]int
	faces     int
}

func newColliderSink() *colliderSink {
	return &colliderSink{colliders: make(map[vec.ChunkPos]int)}
}

func (s *colliderSink) ChunkMeshed(pos vec.ChunkPos, g streaming.Geometry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.faces -= s.colliders[pos]
	faces := g.Mesh.FaceCount()
	if g.Collider == nil {
		delete(s.colliders, pos)
	} else {
		s.colliders[pos] = faces
		s.faces += faces
	}
	logging.Trace("Сетка %s: %d граней", pos, faces)
}

func (s *colliderSink) ChunkEvicted(pos vec.ChunkPos) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.faces -= s.colliders[pos]
	delete(s.colliders, pos)
}

// Faces возвращает суммарное число граней с коллайдерами
func (s *colliderSink) Faces() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faces
}
