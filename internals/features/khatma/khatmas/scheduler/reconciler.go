// file: internals/features/khatma/khatmas/scheduler/reconciler.go
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultSchedule  = "@every 15m"
	defaultBatchSize = 200
	runTimeout       = 4 * time.Minute
)

// Reconciler: sisi service yang dipanggil job (KhatmaService memenuhi ini).
type Reconciler interface {
	ReconcileAll(ctx context.Context, batch int) (int, error)
}

type Config struct {
	Schedule  string // format cron atau @every
	BatchSize int
}

// StartStatusReconciler menurunkan ulang status semua khatma secara berkala.
// Kolom khatma_status hanya proyeksi, job ini membetulkan kalau sempat melenceng
// (mis. proses mati di antara CAS juz dan update proyeksi).
// Panggil Stop() pada cron yang dikembalikan saat shutdown.
func StartStatusReconciler(r Reconciler, cfg Config) (*cron.Cron, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(cfg.Schedule, func() { runOnce(r, cfg.BatchSize) }); err != nil {
		return nil, err
	}
	log.Printf("[KHATMA-RECONCILE] started schedule=%q batch=%d", cfg.Schedule, cfg.BatchSize)
	c.Start()
	return c, nil
}

func runOnce(r Reconciler, batch int) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	start := time.Now()
	n, err := r.ReconcileAll(ctx, batch)
	if err != nil {
		log.Printf("[KHATMA-RECONCILE] berhenti setelah %d khatma: %v", n, err)
		return
	}
	log.Printf("[KHATMA-RECONCILE] %d khatma dicek dalam %s", n, time.Since(start).Round(time.Millisecond))
}
