package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/metrics"
	"github.com/annel0/voxel-engine/internal/observability"
	"github.com/annel0/voxel-engine/internal/physics"
	"github.com/annel0/voxel-engine/internal/storage"
	"github.com/annel0/voxel-engine/internal/streaming"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Скорость, с которой наблюдатель идёт по +X, блоков в секунду
const walkSpeed = 4.0

func main() {
	configPath := flag.String("config", "", "Путь к YAML-конфигурации (по умолчанию VOXEL_CONFIG)")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка загрузки конфигурации: %v", err)
		os.Exit(1)
	}
	if err := logging.SetLevelFromString(cfg.Logging.Level); err != nil {
		logging.Warn("Неизвестный уровень логирования %q: %v", cfg.Logging.Level, err)
	}

	if err := run(cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worldID := uuid.New()
	if cfg.World.ID != "" {
		id, err := uuid.Parse(cfg.World.ID)
		if err != nil {
			return fmt.Errorf("некорректный world.id: %w", err)
		}
		worldID = id
	}
	logging.Info("🌍 Мир %s, seed=%d", worldID, cfg.World.Seed)

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Server.Telemetry {
		shutdown, err := observability.InitTelemetry(ctx, "voxel-engine", worldID.String())
		if err != nil {
			logging.Warn("OpenTelemetry недоступен: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Warn("Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	// === ХРАНИЛИЩЕ ===
	storageLog := logging.GetStorageLogger()
	repo, err := storage.Open(cfg.Storage, worldID.String())
	if err != nil {
		return fmt.Errorf("ошибка открытия хранилища: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			storageLog.Error("Ошибка закрытия хранилища: %v", err)
			return
		}
		storageLog.Info("💾 Хранилище %s закрыто", cfg.Storage.Backend)
	}()
	storageLog.Info("💾 Хранилище %s открыто для мира %s", cfg.Storage.Backend, worldID)

	// === МЕТРИКИ ===
	streamMetrics := metrics.NewStreamingMetrics(prometheus.DefaultRegisterer)
	metricsSrv := metrics.StartHTTP(fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()), prometheus.DefaultGatherer)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	// === МИР ===
	gen := world.NewWorldGenerator(cfg.World.Seed, world.GeneratorParamsFromConfig(cfg.Generator))
	level := world.NewLevel(worldID, gen, repo)

	sink := newColliderSink()
	opts := streaming.OptionsFromConfig(cfg.Streaming)
	opts.Sink = sink
	opts.Metrics = streamMetrics
	opts.Logger = logging.GetStreamingLogger()
	manager := streaming.NewManager(level, opts)

	body := physics.NewBody(
		mgl64.Vec3{0.5, float64(gen.SurfaceHeight(0, 0)) + 3, 0.5},
		mgl64.Vec3{0.6, 1.8, 0.6},
	)
	params := physics.Params{Gravity: cfg.Physics.Gravity, Friction: cfg.Physics.Friction}

	logging.Info("✅ Симуляция запущена: радиус %d, %d тиков/с", cfg.Streaming.RenderRadius, cfg.Server.TickRate)

	err = simulate(ctx, cfg, manager, body, params, sink)

	// === GRACEFUL SHUTDOWN ===
	logging.Debug("Остановка менеджера подгрузки...")
	closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if cerr := manager.Close(closeCtx); cerr != nil {
		logging.Error("❌ %v", cerr)
	}
	return err
}

// simulate двигает наблюдателя и подгружает чанки вокруг него до отмены ctx
func simulate(ctx context.Context, cfg *config.Config, manager *streaming.Manager,
	body *physics.Body, params physics.Params, sink *colliderSink) error {
	interval := cfg.Server.TickInterval()
	dt := interval.Seconds()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	report := time.NewTicker(10 * time.Second)
	defer report.Stop()
	proc := metrics.NewProcessStats()

	for {
		select {
		case <-ctx.Done():
			logging.Info("📡 Получен сигнал завершения, останавливаемся...")
			return nil

		case <-ticker.C:
			observer := vec.ChunkPosFromWorld(body.Position)
			if err := manager.Tick(ctx, observer, cfg.Streaming.RenderRadius); err != nil && ctx.Err() == nil {
				return fmt.Errorf("ошибка тика подгрузки: %w", err)
			}

			// Тело ждёт, пока под ним не появится земля
			feet := vec.ChunkPosFromWorld(body.AABB().Min)
			below := feet.Neighbour(vec.Bottom)
			if !manager.State(feet).Resident() || !manager.State(below).Resident() {
				continue
			}
			if body.OnGround() {
				body.Velocity[0] = walkSpeed
			}
			body.Step(manager.Level(), dt, params)

		case <-report.C:
			s := manager.Stats()
			logging.Info("📊 резидентных=%d грязных=%d загрузок=%d мешинг=%d сгенерировано=%d из хранилища=%d | тело %.1f,%.1f,%.1f | граней=%d | %s",
				s.Resident, s.Dirty, s.InFlightLoads, s.InFlightMeshes, s.Generated, s.FromStorage,
				body.Position[0], body.Position[1], body.Position[2], sink.Faces(), proc.Summary())
		}
	}
}
