package streaming

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/voxel-engine/internal/storage"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = 1337

// Чанк на уровне поверхности: высота рельефа 60±15
var surfaceChunk = vec.ChunkPos{X: 0, Y: 1, Z: 0}

type recordingSink struct {
	mu      sync.Mutex
	meshed  map[vec.ChunkPos]int
	evicted []vec.ChunkPos
}

func newRecordingSink() *recordingSink {
	return &recordingSink{meshed: make(map[vec.ChunkPos]int)}
}

func (s *recordingSink) ChunkMeshed(pos vec.ChunkPos, g Geometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meshed[pos]++
}

func (s *recordingSink) ChunkEvicted(pos vec.ChunkPos) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evicted = append(s.evicted, pos)
}

func (s *recordingSink) meshCount(pos vec.ChunkPos) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meshed[pos]
}

func newTestManager(t *testing.T, repo storage.ChunkRepo, opts Options) *Manager {
	t.Helper()
	gen := world.NewWorldGenerator(testSeed, world.DefaultGeneratorParams())
	level := world.NewLevel(uuid.Nil, gen, repo)
	m := NewManager(level, opts)
	t.Cleanup(func() {
		_ = m.Close(context.Background())
	})
	return m
}

// settle вызывает Tick, пока все позиции радиуса не станут резидентными и чистыми
func settle(t *testing.T, m *Manager, observer vec.ChunkPos, radius int) {
	t.Helper()
	want := len(vec.ChunksWithinRadius(observer, radius))
	deadline := time.Now().Add(10 * time.Second)

	for time.Now().Before(deadline) {
		require.NoError(t, m.Tick(context.Background(), observer, radius))
		s := m.Stats()
		if s.Tracked == want && s.Resident == want && s.Dirty == 0 &&
			s.InFlightLoads == 0 && s.InFlightMeshes == 0 && s.PendingSaves == 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("менеджер не пришёл в устойчивое состояние: %+v", m.Stats())
}

// toggle возвращает блок, отличный от текущего в позиции p
func toggle(t *testing.T, m *Manager, p vec.BlockPos) block.BlockID {
	t.Helper()
	cur, ok := m.Level().GetBlock(p)
	require.True(t, ok)
	if cur.IsSolid() {
		return block.AirBlockID
	}
	return block.RockBlockID
}

func TestTickLoadsAndMeshesDesiredSet(t *testing.T) {
	repo := storage.NewMemoryChunkRepo()
	sink := newRecordingSink()
	m := newTestManager(t, repo, Options{Sink: sink, Workers: 4})

	settle(t, m, surfaceChunk, 1)

	desired := vec.ChunksWithinRadius(surfaceChunk, 1)
	require.Len(t, desired, 7)
	for _, p := range desired {
		assert.Equal(t, StateClean, m.State(p), "чанк %s", p)
		g, ok := m.Geometry(p)
		require.True(t, ok)
		assert.NotNil(t, g.Mesh)
		assert.GreaterOrEqual(t, sink.meshCount(p), 1)
	}

	assert.Equal(t, 7, m.Level().ChunkCount())
	assert.Equal(t, 7, repo.Len(), "сгенерированные чанки сохраняются сразу")

	s := m.Stats()
	assert.Equal(t, uint64(7), s.Generated)
	assert.Zero(t, s.FromStorage)
	assert.Equal(t, StateUnloaded, m.State(vec.ChunkPos{X: 9}))
}

// gatedRepo блокирует чтение до закрытия gate
type gatedRepo struct {
	*storage.MemoryChunkRepo
	gate chan struct{}
}

func (r *gatedRepo) Load(ctx context.Context, pos vec.ChunkPos) ([]byte, bool, error) {
	<-r.gate
	return r.MemoryChunkRepo.Load(ctx, pos)
}

func TestLoadCapBoundsInFlight(t *testing.T) {
	repo := &gatedRepo{MemoryChunkRepo: storage.NewMemoryChunkRepo(), gate: make(chan struct{})}
	m := newTestManager(t, repo, Options{MaxInFlightLoads: 3, Workers: 2})

	require.NoError(t, m.Tick(context.Background(), surfaceChunk, 2))
	s := m.Stats()
	assert.Equal(t, 3, s.InFlightLoads)
	assert.Equal(t, 3, s.Tracked)
	assert.Equal(t, StateLoading, m.State(surfaceChunk), "ближайший чанк загружается первым")

	require.NoError(t, m.Tick(context.Background(), surfaceChunk, 2))
	assert.Equal(t, 3, m.Stats().Tracked, "лимит не превышается, пока задачи не завершены")

	close(repo.gate)
	settle(t, m, surfaceChunk, 2)
}

func TestEditBlockMarksOwnerAndTouchedNeighbours(t *testing.T) {
	m := newTestManager(t, storage.NewMemoryChunkRepo(), Options{})
	settle(t, m, surfaceChunk, 1)
	require.Empty(t, m.DirtyChunks())

	ctx := context.Background()

	// внутренний блок: только свой чанк
	inner := surfaceChunk.Block(vec.LocalPos{X: 10, Y: 10, Z: 10})
	require.NoError(t, m.EditBlock(ctx, inner, toggle(t, m, inner)))
	assert.Equal(t, []vec.ChunkPos{surfaceChunk}, m.DirtyChunks())
	assert.Equal(t, StateDirty, m.State(surfaceChunk))
	settle(t, m, surfaceChunk, 1)

	// блок на грани -X: свой чанк и левый сосед
	edge := surfaceChunk.Block(vec.LocalPos{X: 0, Y: 5, Z: 5})
	require.NoError(t, m.EditBlock(ctx, edge, toggle(t, m, edge)))
	assert.ElementsMatch(t, []vec.ChunkPos{surfaceChunk, surfaceChunk.Neighbour(vec.Left)}, m.DirtyChunks())
	settle(t, m, surfaceChunk, 1)

	// угловой блок касается трёх граней
	corner := surfaceChunk.Block(vec.LocalPos{X: 31, Y: 31, Z: 0})
	require.NoError(t, m.EditBlock(ctx, corner, toggle(t, m, corner)))
	assert.ElementsMatch(t, []vec.ChunkPos{
		surfaceChunk,
		surfaceChunk.Neighbour(vec.Right),
		surfaceChunk.Neighbour(vec.Top),
		surfaceChunk.Neighbour(vec.Back),
	}, m.DirtyChunks())
	settle(t, m, surfaceChunk, 1)

	// повторная запись того же значения ничего не помечает
	cur, _ := m.Level().GetBlock(corner)
	require.NoError(t, m.EditBlock(ctx, corner, cur))
	assert.Empty(t, m.DirtyChunks())
}

func TestEditBlockRequiresResidentChunk(t *testing.T) {
	m := newTestManager(t, storage.NewMemoryChunkRepo(), Options{})
	err := m.EditBlock(context.Background(), vec.BlockPos{X: 1000, Y: 40, Z: 0}, block.DirtBlockID)
	assert.ErrorIs(t, err, ErrChunkNotResident)

	assert.ErrorIs(t, m.RemoveChunk(vec.ChunkPos{X: 50}), ErrChunkNotResident)
}

func TestNeighbourArrivalRemeshesResidentChunk(t *testing.T) {
	sink := newRecordingSink()
	m := newTestManager(t, storage.NewMemoryChunkRepo(), Options{Sink: sink})

	settle(t, m, surfaceChunk, 0)
	require.Equal(t, 1, sink.meshCount(surfaceChunk))

	settle(t, m, surfaceChunk, 1)
	assert.GreaterOrEqual(t, sink.meshCount(surfaceChunk), 2, "приход соседей перестраивает чанк")
	assert.Equal(t, StateClean, m.State(surfaceChunk))
}

func TestEvictionPersistsModifiedChunk(t *testing.T) {
	repo := storage.NewMemoryChunkRepo()
	sink := newRecordingSink()
	m := newTestManager(t, repo, Options{Sink: sink})
	ctx := context.Background()

	settle(t, m, surfaceChunk, 1)

	left := surfaceChunk.Neighbour(vec.Left)
	p := left.Block(vec.LocalPos{X: 7, Y: 7, Z: 7})
	want := toggle(t, m, p)
	require.NoError(t, m.EditBlock(ctx, p, want))

	far := vec.ChunkPos{X: 10, Y: 1, Z: 0}
	settle(t, m, far, 1)

	assert.Equal(t, StateUnloaded, m.State(left))
	_, ok := m.Geometry(left)
	assert.False(t, ok)
	assert.Len(t, sink.evicted, 7)
	assert.Equal(t, uint64(7), m.Stats().Evicted)
	assert.Equal(t, uint64(1), m.Stats().Saved)

	raw, found, err := repo.Load(ctx, left)
	require.NoError(t, err)
	require.True(t, found)
	data, err := world.DeserializeChunkData(raw)
	require.NoError(t, err)
	assert.Equal(t, want, data.Block(p.Local()), "правка пережила выгрузку")

	// повторная загрузка читает сохранённую версию
	settle(t, m, surfaceChunk, 1)
	got, ok := m.Level().GetBlock(p)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCorruptRecordRegenerated(t *testing.T) {
	repo := storage.NewMemoryChunkRepo()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, surfaceChunk, []byte{0x00, 0x01}))

	m := newTestManager(t, repo, Options{})
	settle(t, m, surfaceChunk, 0)

	assert.Equal(t, uint64(1), m.Stats().Repaired)

	raw, found, err := repo.Load(ctx, surfaceChunk)
	require.NoError(t, err)
	require.True(t, found)
	data, err := world.DeserializeChunkData(raw)
	require.NoError(t, err, "повреждённая запись перезаписана")

	gen := world.NewWorldGenerator(testSeed, world.DefaultGeneratorParams())
	assert.Equal(t, gen.GenerateChunk(surfaceChunk).Serialize(), data.Serialize())
}

func TestStoredChunkPreferredOverGenerator(t *testing.T) {
	repo := storage.NewMemoryChunkRepo()
	ctx := context.Background()

	sand := world.NewChunkData()
	sand.Fill(block.SandBlockID)
	require.NoError(t, repo.Save(ctx, surfaceChunk, sand.Serialize()))

	m := newTestManager(t, repo, Options{})
	settle(t, m, surfaceChunk, 0)

	assert.Equal(t, uint64(1), m.Stats().FromStorage)
	id, ok := m.Level().GetBlock(surfaceChunk.Block(vec.LocalPos{X: 3, Y: 30, Z: 9}))
	require.True(t, ok)
	assert.Equal(t, block.SandBlockID, id)
}

func TestRemoveChunkClearsAndRemeshes(t *testing.T) {
	m := newTestManager(t, storage.NewMemoryChunkRepo(), Options{})
	settle(t, m, surfaceChunk, 1)

	require.NoError(t, m.RemoveChunk(surfaceChunk))
	dirty := m.DirtyChunks()
	assert.Len(t, dirty, 7, "чанк и все резидентные соседи")

	settle(t, m, surfaceChunk, 1)
	g, ok := m.Geometry(surfaceChunk)
	require.True(t, ok)
	assert.True(t, g.Mesh.IsEmpty())
	assert.Nil(t, g.Collider)
}

func TestCloseFlushesModifiedChunks(t *testing.T) {
	repo := storage.NewMemoryChunkRepo()
	gen := world.NewWorldGenerator(testSeed, world.DefaultGeneratorParams())
	m := NewManager(world.NewLevel(uuid.Nil, gen, repo), Options{})
	ctx := context.Background()

	settle(t, m, surfaceChunk, 0)
	p := surfaceChunk.Block(vec.LocalPos{X: 1, Y: 2, Z: 3})
	want := toggle(t, m, p)
	require.NoError(t, m.EditBlock(ctx, p, want))

	require.NoError(t, m.Close(ctx))
	assert.ErrorIs(t, m.Tick(ctx, surfaceChunk, 0), ErrManagerClosed)

	raw, found, err := repo.Load(ctx, surfaceChunk)
	require.NoError(t, err)
	require.True(t, found)
	data, err := world.DeserializeChunkData(raw)
	require.NoError(t, err)
	assert.Equal(t, want, data.Block(p.Local()))
}

func TestTouchedFaces(t *testing.T) {
	assert.Empty(t, touchedFaces(vec.LocalPos{X: 4, Y: 5, Z: 6}))
	assert.Equal(t, []vec.Face{vec.Left}, touchedFaces(vec.LocalPos{X: 0, Y: 5, Z: 6}))
	assert.Equal(t, []vec.Face{vec.Top, vec.Front}, touchedFaces(vec.LocalPos{X: 9, Y: 31, Z: 31}))
	assert.Equal(t, []vec.Face{vec.Right, vec.Bottom, vec.Back}, touchedFaces(vec.LocalPos{X: 31, Y: 0, Z: 0}))
}
