// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper removes expired pending transactions and reports how many went.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type Scheduler struct {
	c   *cron.Cron
	log *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		c:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		log: log,
	}
}

// AddSweep registers s under spec, e.g. "@every 1m".
func (s *Scheduler) AddSweep(spec string, sw Sweeper) error {
	_, err := s.c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := sw.Sweep(ctx)
		if err != nil {
			s.log.Errorw("sweep pending transactions", "err", err)
			return
		}
		if n > 0 {
			s.log.Infow("swept expired pending transactions", "count", n)
		}
	})
	return err
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() { <-s.c.Stop().Done() }
