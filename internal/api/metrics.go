package api

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessMetrics снимает показатели процесса клиента для /health
type ProcessMetrics struct {
	StartTime time.Time
}

// NewProcessMetrics запоминает время старта
func NewProcessMetrics() *ProcessMetrics {
	return &ProcessMetrics{StartTime: time.Now()}
}

// Uptime время работы процесса
func (pm *ProcessMetrics) Uptime() time.Duration {
	return time.Since(pm.StartTime).Truncate(time.Second)
}

// MemoryMB текущая занятая куча в мегабайтах
func (pm *ProcessMetrics) MemoryMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.Alloc) / 1024 / 1024
}

// CPUPercent загрузка CPU процессом; при ошибке берётся системная
func (pm *ProcessMetrics) CPUPercent() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if pct, err := proc.CPUPercent(); err == nil {
			return pct, nil
		}
	}

	pcts, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(pcts) == 0 {
		return 0, err
	}
	return pcts[0], nil
}

// Snapshot собирает показатели для ответа /health
func (pm *ProcessMetrics) Snapshot() HealthProcess {
	cpuPct, _ := pm.CPUPercent()
	return HealthProcess{
		Uptime:     pm.Uptime().String(),
		MemoryMB:   pm.MemoryMB(),
		CPUPercent: cpuPct,
		Goroutines: runtime.NumGoroutine(),
	}
}
