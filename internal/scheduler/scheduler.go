package scheduler

import (
	"context"
	"log"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/config"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/service"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the reconciliation on a cron schedule, one job per
// configured fusion source.
type Scheduler struct {
	cron          *cron.Cron
	fusionService *service.FusionService
	cfg           config.SchedulerConfig
	sourceIDs     []string
}

func NewScheduler(fusionService *service.FusionService, cfg config.SchedulerConfig, sourceIDs []string) *Scheduler {
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(log.Writer(), "cron: ", log.LstdFlags))),
	)

	return &Scheduler{
		cron:          c,
		fusionService: fusionService,
		cfg:           cfg,
		sourceIDs:     sourceIDs,
	}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		log.Println("Scheduler disabled by configuration")
		return nil
	}
	if len(s.sourceIDs) == 0 {
		log.Println("No fusion sources configured for scheduling")
		return nil
	}

	log.Printf("Starting scheduler with spec %q for %d fusion source(s)...", s.cfg.Spec, len(s.sourceIDs))

	for _, sourceID := range s.sourceIDs {
		_, err := s.cron.AddFunc(s.cfg.Spec, func() {
			ctx := context.Background()
			log.Printf("Running scheduled reconciliation for fusion source %s...", sourceID)

			if _, err := s.fusionService.Reconcile(ctx, sourceID); err != nil {
				log.Printf("Error in scheduled reconciliation for %s: %v", sourceID, err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Println("Scheduler started successfully")

	return nil
}

func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// RunNow triggers reconciliation of one fusion source immediately, outside
// the schedule.
func (s *Scheduler) RunNow(ctx context.Context, fusionSourceID string) error {
	log.Printf("Running reconciliation for fusion source %s manually...", fusionSourceID)
	_, err := s.fusionService.Reconcile(ctx, fusionSourceID)
	return err
}

// GetScheduledJobs returns information about scheduled jobs
func (s *Scheduler) GetScheduledJobs() []cron.Entry {
	return s.cron.Entries()
}
