package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/mesh"
	"github.com/annel0/voxel-engine/internal/metrics"
	"github.com/annel0/voxel-engine/internal/storage"
	"github.com/annel0/voxel-engine/internal/tasks"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/google/uuid"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML-конфигурации")
		command    = flag.String("cmd", "pregen", "Command: pregen, inspect, column")
		center     = flag.String("chunk", "0,1,0", "Chunk coordinates x,y,z")
		radius     = flag.Int("radius", 4, "Pregeneration radius in chunks")
		worldID    = flag.String("world", "", "World ID (storage key prefix); defaults to world.id")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	pos, err := parseChunkPos(*center)
	if err != nil {
		log.Fatalf("❌ Bad -chunk: %v", err)
	}

	id := *worldID
	if id == "" {
		id = cfg.World.ID
	}
	var levelID uuid.UUID
	if id != "" {
		levelID, err = uuid.Parse(id)
		if err != nil {
			log.Fatalf("❌ Bad world id %q: %v", id, err)
		}
		id = levelID.String()
	}

	repo, err := storage.Open(cfg.Storage, id)
	if err != nil {
		log.Fatalf("❌ Failed to open storage: %v", err)
	}
	defer repo.Close()

	gen := world.NewWorldGenerator(cfg.World.Seed, world.GeneratorParamsFromConfig(cfg.Generator))
	level := world.NewLevel(levelID, gen, repo)

	ctx := context.Background()
	switch *command {
	case "pregen":
		err = pregenerate(ctx, level, pos, *radius, cfg.Streaming.Workers)
	case "inspect":
		err = inspect(ctx, level, pos)
	case "column":
		column(gen, pos)
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: pregen, inspect, column")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

func parseChunkPos(s string) (vec.ChunkPos, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vec.ChunkPos{}, fmt.Errorf("expected x,y,z, got %q", s)
	}
	var xyz [3]int32
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return vec.ChunkPos{}, err
		}
		xyz[i] = int32(v)
	}
	return vec.ChunkPos{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// pregenerate загружает или генерирует все чанки радиуса и сохраняет их
func pregenerate(ctx context.Context, level *world.Level, center vec.ChunkPos, radius, workers int) error {
	positions := vec.ChunksWithinRadius(center, radius)
	fmt.Printf("🌍 Pregenerating %d chunks around %s (radius %d)\n", len(positions), center, radius)

	proc := metrics.NewProcessStats()
	pool := tasks.NewPool(ctx, workers)
	start := time.Now()

	jobs := make([]*tasks.Task[world.LoadResult], 0, len(positions))
	for _, p := range positions {
		t, err := tasks.Spawn(pool, func(ctx context.Context) world.LoadResult {
			return level.LoadOrGenerate(ctx, p)
		})
		if err != nil {
			return err
		}
		jobs = append(jobs, t)
	}

	counts := map[world.LoadSource]int{}
	var storageErrs int
	for _, t := range jobs {
		res, err := t.Wait(ctx)
		if err != nil {
			return err
		}
		counts[res.Source]++
		if res.StorageErr != nil {
			storageErrs++
			fmt.Printf("⚠️  %s: %v\n", res.Chunk.Coords, res.StorageErr)
		}
	}
	if err := pool.Close(ctx); err != nil {
		return err
	}

	fmt.Printf("✅ Done in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  from storage: %d\n", counts[world.SourceStorage])
	fmt.Printf("  generated:    %d\n", counts[world.SourceGenerated])
	fmt.Printf("  repaired:     %d\n", counts[world.SourceRepaired])
	fmt.Printf("  storage errs: %d\n", storageErrs)
	fmt.Printf("  process:      %s\n", proc.Summary())
	return nil
}

// inspect выводит состав и геометрию одного чанка
func inspect(ctx context.Context, level *world.Level, pos vec.ChunkPos) error {
	res := level.LoadOrGenerate(ctx, pos)
	if res.StorageErr != nil {
		fmt.Printf("⚠️  storage: %v\n", res.StorageErr)
	}
	data := res.Chunk.Snapshot()

	fmt.Printf("📦 Chunk %s (source: %s)\n", pos, res.Source)
	var byKind [block.SandBlockID + 1]int
	for i := 0; i < vec.ChunkVolume; i++ {
		byKind[data.Block(vec.LocalFromIndex(i))]++
	}
	for id, n := range byKind {
		if n > 0 {
			fmt.Printf("  %-6s %6d\n", block.BlockID(id), n)
		}
	}

	encoded := data.Serialize()
	fmt.Printf("  encoded: %d bytes (%d runs)\n", len(encoded), len(encoded)/3)

	m := mesh.Extract(data, mesh.SolidEdges())
	fmt.Printf("  mesh: %d faces, %d vertices, %d indices\n", m.FaceCount(), m.VertexCount(), len(m.Indices))
	return nil
}

// column печатает профиль колонки в центре чанка
func column(gen *world.WorldGenerator, pos vec.ChunkPos) {
	origin := pos.Origin()
	x, z := origin.X+vec.ChunkSize/2, origin.Z+vec.ChunkSize/2
	surface := gen.SurfaceHeight(x, z)
	fmt.Printf("🗻 Column (%d, %d): surface at y=%d\n", x, z, surface)
	for y := surface + 2; y >= surface-5; y-- {
		fmt.Printf("  y=%4d %s\n", y, gen.BlockAt(vec.BlockPos{X: x, Y: y, Z: z}))
	}
}
