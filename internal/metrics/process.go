package metrics

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats содержит метрики процесса
type ProcessStats struct {
	StartTime time.Time
}

// NewProcessStats создаёт метрики процесса, отсчитывая время работы от текущего момента
func NewProcessStats() *ProcessStats {
	return &ProcessStats{StartTime: time.Now()}
}

// Uptime возвращает время работы в читаемом виде
func (ps *ProcessStats) Uptime() string {
	uptime := time.Since(ps.StartTime)

	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// HeapMB возвращает объём кучи Go в MB
func (ps *ProcessStats) HeapMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.Alloc) / 1024 / 1024
}

// RSSMB возвращает резидентную память процесса в MB
func (ps *ProcessStats) RSSMB() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return float64(info.RSS) / 1024 / 1024, nil
}

// CPUPercent возвращает загрузку CPU процессом, при ошибке системную
func (ps *ProcessStats) CPUPercent() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if pct, err := proc.CPUPercent(); err == nil {
			return pct, nil
		}
	}

	pcts, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, fmt.Errorf("нет данных о загрузке CPU")
	}
	return pcts[0], nil
}

// Summary возвращает строку для периодического лога
func (ps *ProcessStats) Summary() string {
	rss, err := ps.RSSMB()
	if err != nil {
		return fmt.Sprintf("uptime=%s heap=%.1fMB goroutines=%d", ps.Uptime(), ps.HeapMB(), runtime.NumGoroutine())
	}
	return fmt.Sprintf("uptime=%s heap=%.1fMB rss=%.1fMB goroutines=%d",
		ps.Uptime(), ps.HeapMB(), rss, runtime.NumGoroutine())
}
