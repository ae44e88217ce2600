package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"propertyhub/util/lock"
)

const (
	jobTimeout = 5 * time.Minute
	lockTTL    = 10 * time.Minute
)

// Job is one sweep; it reports how many rows it touched.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron   *cron.Cron
	locker lock.Locker
	log    *zap.Logger
}

func New(locker lock.Locker, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		locker: locker,
		log:    log,
	}
}

func (s *Scheduler) Add(j Job) error {
	_, err := s.cron.AddFunc(j.Spec, func() { s.RunOnce(context.Background(), j) })
	return err
}

// RunOnce runs j under the cluster-wide lock; when another replica holds it the run is skipped.
func (s *Scheduler) RunOnce(ctx context.Context, j Job) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	unlock, ok, err := s.locker.TryLock(ctx, "sweep:"+j.Name, lockTTL)
	if err != nil {
		s.log.Error("sweep lock failed", zap.String("job", j.Name), zap.Error(err))
		return
	}
	if !ok {
		s.log.Debug("sweep already running elsewhere", zap.String("job", j.Name))
		return
	}
	defer unlock()

	start := time.Now()
	n, err := j.Run(ctx)
	if err != nil {
		s.log.Error("sweep failed", zap.String("job", j.Name), zap.Error(err))
		return
	}
	s.log.Info("sweep done",
		zap.String("job", j.Name),
		zap.Int64("affected", n),
		zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
