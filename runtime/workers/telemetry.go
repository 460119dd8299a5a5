package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"chat-core/observability"

	"github.com/shirou/gopsutil/process"
)

// Telemetry samples the server's own resource usage on an interval and
// feeds the gauges. Purely observational; failures are logged and skipped.
type Telemetry struct {
	log      *slog.Logger
	metrics  *observability.Metrics
	interval time.Duration
}

func NewTelemetry(log *slog.Logger, metrics *observability.Metrics, interval time.Duration) *Telemetry {
	return &Telemetry{log: log, metrics: metrics, interval: interval}
}

func (w *Telemetry) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			memory, err := proc.MemoryInfo()
			if err != nil {
				w.log.Debug("failed to sample memory", "error", err)
				continue
			}
			cpu, err := proc.CPUPercent()
			if err != nil {
				w.log.Debug("failed to sample cpu", "error", err)
				continue
			}
			w.metrics.ProcessRSSBytes.Set(float64(memory.RSS))
			w.metrics.ProcessCPUPercent.Set(cpu)
		}
	}
}
