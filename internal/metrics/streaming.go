package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StreamingMetrics содержит Prometheus-метрики менеджера подгрузки чанков.
// Все методы допускают nil-получатель.
type StreamingMetrics struct {
	Resident       prometheus.Gauge
	InFlightLoads  prometheus.Gauge
	InFlightMeshes prometheus.Gauge

	Loaded      *prometheus.CounterVec
	Corrupt     prometheus.Counter
	StorageErrs prometheus.Counter
	Meshes      prometheus.Counter
	Evictions   prometheus.Counter
	Saves       prometheus.Counter

	MeshDuration prometheus.Histogram
}

// NewStreamingMetrics создаёт метрики и регистрирует их в reg (при nil без регистрации)
func NewStreamingMetrics(reg prometheus.Registerer) *StreamingMetrics {
	m := &StreamingMetrics{
		Resident: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "resident_chunks",
			Help:      "Количество резидентных чанков.",
		}),
		InFlightLoads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "inflight_loads",
			Help:      "Задачи загрузки и генерации в работе.",
		}),
		InFlightMeshes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "inflight_meshes",
			Help:      "Задачи построения геометрии в работе.",
		}),
		Loaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "chunks_loaded_total",
			Help:      "Чанки, ставшие резидентными, по источнику.",
		}, []string{"source"}),
		Corrupt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "chunks_corrupt_total",
			Help:      "Повреждённые записи, заменённые генерацией.",
		}),
		StorageErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "storage_errors_total",
			Help:      "Ошибки чтения и записи хранилища.",
		}),
		Meshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "meshes_built_total",
			Help:      "Опубликованные сетки чанков.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "evictions_total",
			Help:      "Чанки, выгруженные за пределами радиуса.",
		}),
		Saves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "chunk_saves_total",
			Help:      "Изменённые чанки, записанные в хранилище.",
		}),
		MeshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "mesh_duration_seconds",
			Help:      "Время построения сетки одного чанка.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Resident, m.InFlightLoads, m.InFlightMeshes,
			m.Loaded, m.Corrupt, m.StorageErrs, m.Meshes, m.Evictions, m.Saves, m.MeshDuration)
	}
	return m
}

// SetQueues обновляет gauge-метрики состояния
func (m *StreamingMetrics) SetQueues(resident, loads, meshes int) {
	if m == nil {
		return
	}
	m.Resident.Set(float64(resident))
	m.InFlightLoads.Set(float64(loads))
	m.InFlightMeshes.Set(float64(meshes))
}

// ChunkLoaded учитывает чанк, ставший резидентным
func (m *StreamingMetrics) ChunkLoaded(source string, corrupt, storageErr bool) {
	if m == nil {
		return
	}
	m.Loaded.WithLabelValues(source).Inc()
	if corrupt {
		m.Corrupt.Inc()
	}
	if storageErr {
		m.StorageErrs.Inc()
	}
}

// MeshBuilt учитывает опубликованную сетку
func (m *StreamingMetrics) MeshBuilt(seconds float64) {
	if m == nil {
		return
	}
	m.Meshes.Inc()
	m.MeshDuration.Observe(seconds)
}

// Evicted учитывает выгрузку чанка
func (m *StreamingMetrics) Evicted() {
	if m == nil {
		return
	}
	m.Evictions.Inc()
}

// Saved учитывает запись изменённого чанка; err != nil означает ошибку хранилища
func (m *StreamingMetrics) Saved(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.StorageErrs.Inc()
		return
	}
	m.Saves.Inc()
}
