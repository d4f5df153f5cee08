package helper

import (
	"context"
	"log"
	"time"

	"storefront/service"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

const (
	ReconcileInterval = 10 * time.Minute
	PendingGaugeSpec  = "*/5 * * * *"
	jobTimeout        = time.Minute
)

// StartReconcileScheduler fails stale payment records every ReconcileInterval.
func StartReconcileScheduler(r *service.Reconciler) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(ReconcileInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			r.ExpireStale(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	s.Start()
	log.Printf("Payment reconcile scheduler started (every %s)", ReconcileInterval)
	return s, nil
}

// StartPendingGaugeScheduler refreshes checkout_pending_payments every 5 minutes.
func StartPendingGaugeScheduler(r *service.Reconciler) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	_, err := scheduler.AddFunc(PendingGaugeSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		r.RefreshPendingGauge(ctx)
	})
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	log.Println("Pending payment gauge scheduler started (every 5 minutes)")
	return scheduler, nil
}

func StopSchedulers(s gocron.Scheduler, c *cron.Cron) {
	if s != nil {
		if err := s.Shutdown(); err != nil {
			log.Printf("Reconcile scheduler shutdown: %v", err)
		}
	}
	if c != nil {
		<-c.Stop().Done()
	}
}
