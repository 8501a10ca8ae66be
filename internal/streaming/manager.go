package streaming

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/mesh"
	"github.com/annel0/voxel-engine/internal/metrics"
	"github.com/annel0/voxel-engine/internal/observability"
	"github.com/annel0/voxel-engine/internal/tasks"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// ErrChunkNotResident возвращается при правке чанка, которого нет в уровне
	ErrChunkNotResident = errors.New("чанк не резидентный")
	// ErrManagerClosed возвращается из Tick после Close
	ErrManagerClosed = errors.New("менеджер подгрузки остановлен")
)

// DefaultMaxInFlightLoads задаёт ограничение одновременных задач загрузки
const DefaultMaxInFlightLoads = 25

// Options настраивает Manager
type Options struct {
	MaxInFlightLoads int
	Workers          int // <= 0 означает число CPU
	Sink             MeshSink
	Metrics          *metrics.StreamingMetrics
	Logger           *logging.Logger
}

// OptionsFromConfig переносит секцию streaming конфигурации в Options
func OptionsFromConfig(cfg config.StreamingConfig) Options {
	return Options{
		MaxInFlightLoads: cfg.MaxInFlightLoads,
		Workers:          cfg.Workers,
	}
}

type loadOutcome struct {
	result  world.LoadResult
	elapsed time.Duration
}

type meshOutcome struct {
	geometry Geometry
	elapsed  time.Duration
}

// entry описывает отслеживаемую позицию. chunk == nil, пока идёт загрузка.
type entry struct {
	chunk    *world.Chunk
	dirty    bool
	load     *tasks.Task[loadOutcome]
	mesh     *tasks.Task[meshOutcome]
	geometry *Geometry
}

func (e *entry) state() State {
	switch {
	case e.chunk == nil:
		return StateLoading
	case e.mesh != nil:
		return StateMeshing
	case e.dirty:
		return StateDirty
	default:
		return StateClean
	}
}

// Manager поддерживает набор резидентных чанков вокруг наблюдателя:
// запускает загрузку, построение геометрии и выгрузку.
// Все фоновые задачи опрашиваются без блокировки в Tick.
type Manager struct {
	level *world.Level
	pool  *tasks.Pool
	opts  Options
	log   *logging.Logger

	mu      sync.Mutex
	closed  bool
	entries map[vec.ChunkPos]*entry
	loading int // включая задачи выгруженных позиций
	meshing int

	// Задачи выгруженных позиций: доживают до конца, результат отбрасывается
	orphanLoads  []*tasks.Task[loadOutcome]
	orphanMeshes []*tasks.Task[meshOutcome]

	// Сохранения выгруженных изменённых чанков; позиция не загружается, пока запись не завершена
	saves map[vec.ChunkPos]*tasks.Task[error]

	stats Stats
}

// NewManager создаёт менеджер поверх уровня. Уровень должен наполняться только через менеджер.
func NewManager(level *world.Level, opts Options) *Manager {
	if opts.MaxInFlightLoads <= 0 {
		opts.MaxInFlightLoads = DefaultMaxInFlightLoads
	}
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}

	return &Manager{
		level:   level,
		pool:    tasks.NewPool(context.Background(), opts.Workers),
		opts:    opts,
		log:     log,
		entries: make(map[vec.ChunkPos]*entry),
		saves:   make(map[vec.ChunkPos]*tasks.Task[error]),
	}
}

// Level возвращает уровень менеджера
func (m *Manager) Level() *world.Level {
	return m.level
}

// Tick выполняет один шаг подгрузки для наблюдателя в чанке observer
// с радиусом radius (в чанках). Не блокируется на фоновых задачах.
func (m *Manager) Tick(ctx context.Context, observer vec.ChunkPos, radius int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}

	desired := vec.ChunksWithinRadius(observer, radius)
	want := make(map[vec.ChunkPos]struct{}, len(desired))
	for _, p := range desired {
		want[p] = struct{}{}
	}

	var events []func()

	m.pollSaves()
	m.pollOrphans()
	m.startLoads(desired)
	m.pollLoads()
	events = m.pollMeshes(events)
	m.startMeshes(desired)
	events = m.evict(want, events)

	m.opts.Metrics.SetQueues(m.level.ChunkCount(), m.loading, m.meshing)
	m.mu.Unlock()

	for _, ev := range events {
		ev()
	}
	return nil
}

// startLoads запускает загрузку недостающих позиций от ближних к дальним в пределах лимита
func (m *Manager) startLoads(desired []vec.ChunkPos) {
	budget := m.opts.MaxInFlightLoads - m.loading
	for _, p := range desired {
		if budget <= 0 {
			return
		}
		if _, ok := m.entries[p]; ok {
			continue
		}
		if _, ok := m.saves[p]; ok {
			continue
		}

		t, err := tasks.Spawn(m.pool, m.loadJob(p))
		if err != nil {
			m.log.Warn("Не удалось запустить загрузку чанка %s: %v", p, err)
			return
		}
		m.entries[p] = &entry{load: t}
		m.loading++
		budget--
	}
}

func (m *Manager) loadJob(pos vec.ChunkPos) func(ctx context.Context) loadOutcome {
	return func(ctx context.Context) loadOutcome {
		ctx, span := observability.Tracer().Start(ctx, "chunk.load", observability.ChunkAttrs(pos.X, pos.Y, pos.Z))
		defer span.End()

		start := time.Now()
		res := m.level.LoadOrGenerate(ctx, pos)
		span.SetAttributes(attribute.String("chunk.source", res.Source.String()))
		if res.StorageErr != nil {
			span.RecordError(res.StorageErr)
		}
		return loadOutcome{result: res, elapsed: time.Since(start)}
	}
}

// pollLoads забирает завершённые загрузки и делает чанки резидентными
func (m *Manager) pollLoads() {
	for pos, e := range m.entries {
		if e.load == nil {
			continue
		}
		out, ok := e.load.TryTake()
		if !ok {
			continue
		}
		e.load = nil
		m.loading--

		if out.result.Chunk == nil {
			// задача завершилась аварийно, позиция будет запрошена на следующем тике
			delete(m.entries, pos)
			continue
		}
		m.admit(pos, e, out)
	}
}

// admit вставляет чанк в уровень и помечает его и резидентных соседей грязными
func (m *Manager) admit(pos vec.ChunkPos, e *entry, out loadOutcome) {
	res := out.result
	if res.StorageErr != nil {
		m.log.Warn("Ошибка хранилища для чанка %s: %v", pos, res.StorageErr)
	}

	m.level.Insert(res.Chunk)
	e.chunk = res.Chunk
	e.dirty = true
	for _, n := range pos.Adjacent() {
		m.markDirty(n)
	}

	switch res.Source {
	case world.SourceStorage:
		m.stats.FromStorage++
	case world.SourceGenerated:
		m.stats.Generated++
	case world.SourceRepaired:
		m.stats.Repaired++
	}
	m.opts.Metrics.ChunkLoaded(res.Source.String(), res.DecodeErr != nil, res.StorageErr != nil)
	logging.LogChunkLoaded(pos, res.Source.String(), out.elapsed)
}

// markDirty помечает резидентный чанк грязным; нерезидентные позиции пропускаются
func (m *Manager) markDirty(pos vec.ChunkPos) {
	if e, ok := m.entries[pos]; ok && e.chunk != nil {
		e.dirty = true
	}
}

// pollMeshes публикует готовую геометрию
func (m *Manager) pollMeshes(events []func()) []func() {
	sink := m.opts.Sink
	for pos, e := range m.entries {
		if e.mesh == nil {
			continue
		}
		out, ok := e.mesh.TryTake()
		if !ok {
			continue
		}
		e.mesh = nil
		m.meshing--

		if out.geometry.Mesh == nil {
			e.dirty = true
			continue
		}

		g := out.geometry
		e.geometry = &g
		m.stats.MeshesBuilt++
		m.opts.Metrics.MeshBuilt(out.elapsed.Seconds())
		if sink != nil {
			events = append(events, func() { sink.ChunkMeshed(pos, g) })
		}
	}
	return events
}

// startMeshes запускает построение геометрии для грязных чанков от ближних к дальним
func (m *Manager) startMeshes(desired []vec.ChunkPos) {
	for _, p := range desired {
		e, ok := m.entries[p]
		if !ok || e.chunk == nil || !e.dirty || e.mesh != nil {
			continue
		}

		edges := mesh.EdgesFrom(m.level.Neighbours(p))
		t, err := tasks.Spawn(m.pool, m.meshJob(e.chunk, edges))
		if err != nil {
			m.log.Warn("Не удалось запустить построение сетки %s: %v", p, err)
			return
		}
		e.dirty = false
		e.mesh = t
		m.meshing++
	}
}

func (m *Manager) meshJob(c *world.Chunk, edges *mesh.AdjacentEdges) func(ctx context.Context) meshOutcome {
	return func(ctx context.Context) meshOutcome {
		pos := c.Coords
		_, span := observability.Tracer().Start(ctx, "chunk.mesh", observability.ChunkAttrs(pos.X, pos.Y, pos.Z))
		defer span.End()

		start := time.Now()
		mm := mesh.ExtractChunk(c, edges)
		span.SetAttributes(attribute.Int("mesh.faces", mm.FaceCount()))
		return meshOutcome{
			geometry: Geometry{Mesh: mm, Collider: mm.Collider()},
			elapsed:  time.Since(start),
		}
	}
}

// evict выгружает позиции вне желаемого набора
func (m *Manager) evict(want map[vec.ChunkPos]struct{}, events []func()) []func() {
	sink := m.opts.Sink
	for pos, e := range m.entries {
		if _, ok := want[pos]; ok {
			continue
		}
		delete(m.entries, pos)

		if e.load != nil {
			m.orphanLoads = append(m.orphanLoads, e.load)
		}
		if e.mesh != nil {
			m.orphanMeshes = append(m.orphanMeshes, e.mesh)
		}
		if e.chunk == nil {
			continue
		}

		m.level.Remove(pos)
		m.stats.Evicted++
		m.opts.Metrics.Evicted()
		if sink != nil {
			events = append(events, func() { sink.ChunkEvicted(pos) })
		}
		if e.chunk.Modified() {
			m.scheduleSave(e.chunk)
		}
	}
	return events
}

func (m *Manager) scheduleSave(c *world.Chunk) {
	t, err := tasks.Spawn(m.pool, func(ctx context.Context) error {
		_, err := m.level.SaveChunk(ctx, c)
		return err
	})
	if err != nil {
		m.log.Error("Не удалось запланировать сохранение чанка %s: %v", c.Coords, err)
		return
	}
	m.saves[c.Coords] = t
}

func (m *Manager) pollSaves() {
	for pos, t := range m.saves {
		err, ok := t.TryTake()
		if !ok {
			continue
		}
		delete(m.saves, pos)
		m.recordSave(pos, err)
	}
}

func (m *Manager) recordSave(pos vec.ChunkPos, err error) {
	m.opts.Metrics.Saved(err)
	if err != nil {
		m.stats.SaveErrors++
		m.log.Error("Ошибка сохранения чанка %s: %v", pos, err)
		return
	}
	m.stats.Saved++
}

// pollOrphans освобождает лимит задач, чьи позиции уже выгружены
func (m *Manager) pollOrphans() {
	m.orphanLoads = slices.DeleteFunc(m.orphanLoads, func(t *tasks.Task[loadOutcome]) bool {
		if t.Finished() {
			m.loading--
			return true
		}
		return false
	})
	m.orphanMeshes = slices.DeleteFunc(m.orphanMeshes, func(t *tasks.Task[meshOutcome]) bool {
		if t.Finished() {
			m.meshing--
			return true
		}
		return false
	})
}

// touchedFaces возвращает грани чанка, которых касается ячейка l
func touchedFaces(l vec.LocalPos) []vec.Face {
	const last = vec.ChunkSize - 1
	var faces []vec.Face
	switch l.X {
	case 0:
		faces = append(faces, vec.Left)
	case last:
		faces = append(faces, vec.Right)
	}
	switch l.Y {
	case 0:
		faces = append(faces, vec.Bottom)
	case last:
		faces = append(faces, vec.Top)
	}
	switch l.Z {
	case 0:
		faces = append(faces, vec.Back)
	case last:
		faces = append(faces, vec.Front)
	}
	return faces
}

// EditBlock изменяет блок резидентного чанка и помечает грязными его чанк
// и соседей, чьей общей грани касается блок.
func (m *Manager) EditBlock(ctx context.Context, p vec.BlockPos, id block.BlockID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cpos := p.Chunk()
	e, ok := m.entries[cpos]
	if !ok || e.chunk == nil {
		return fmt.Errorf("%w: %s", ErrChunkNotResident, cpos)
	}

	changed, err := m.level.SetBlock(p, id)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	e.dirty = true
	for _, f := range touchedFaces(p.Local()) {
		m.markDirty(cpos.Neighbour(f))
	}
	return nil
}

// RemoveChunk очищает резидентный чанк и помечает его и соседей грязными
func (m *Manager) RemoveChunk(pos vec.ChunkPos) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[pos]
	if !ok || e.chunk == nil {
		return fmt.Errorf("%w: %s", ErrChunkNotResident, pos)
	}

	e.chunk.Clear()
	e.dirty = true
	for _, n := range pos.Adjacent() {
		m.markDirty(n)
	}
	m.log.Debug("Чанк %s очищен", pos)
	return nil
}

// State возвращает стадию жизненного цикла позиции
func (m *Manager) State(pos vec.ChunkPos) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[pos]; ok {
		return e.state()
	}
	return StateUnloaded
}

// Geometry возвращает последнюю опубликованную геометрию резидентного чанка
func (m *Manager) Geometry(pos vec.ChunkPos) (Geometry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[pos]
	if !ok || e.geometry == nil {
		return Geometry{}, false
	}
	return *e.geometry, true
}

// DirtyChunks возвращает резидентные чанки, ожидающие перестроения геометрии
func (m *Manager) DirtyChunks() []vec.ChunkPos {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []vec.ChunkPos
	for pos, e := range m.entries {
		if e.chunk != nil && e.dirty {
			out = append(out, pos)
		}
	}
	slices.SortFunc(out, func(a, b vec.ChunkPos) int {
		return cmp.Or(cmp.Compare(a.X, b.X), cmp.Compare(a.Y, b.Y), cmp.Compare(a.Z, b.Z))
	})
	return out
}

// Stats возвращает текущие счётчики
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats
	s.Tracked = len(m.entries)
	for _, e := range m.entries {
		if e.chunk == nil {
			continue
		}
		s.Resident++
		if e.dirty {
			s.Dirty++
		}
	}
	s.InFlightLoads = m.loading
	s.InFlightMeshes = m.meshing
	s.PendingSaves = len(m.saves)
	return s
}

// Close ждёт фоновые задачи и сохраняет изменённые чанки.
// Хранилище уровня не закрывается.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	poolErr := m.pool.Close(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pollSaves()
	saved, saveErr := m.level.SaveAll(ctx)
	m.stats.Saved += uint64(saved)
	if saved > 0 {
		m.log.Info("💾 Сохранено изменённых чанков при остановке: %d", saved)
	}

	if err := errors.Join(poolErr, saveErr); err != nil {
		return fmt.Errorf("ошибка остановки менеджера подгрузки: %w", err)
	}
	return nil
}
