package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/attr"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/fusion"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/logger"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/platform"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/repository"

	"github.com/google/uuid"
)

// Account is one emitted fusion identity rendered as a connector account.
type Account struct {
	Identity   string          `json:"identity"`
	UUID       string          `json:"uuid,omitempty"`
	Attributes attr.Attributes `json:"attributes"`
}

// RunSummary is the outcome of one reconciliation, with the emitted
// accounts.
type RunSummary struct {
	RunID         uuid.UUID               `json:"runId"`
	Reset         bool                    `json:"reset"`
	Linked        int                     `json:"linked"`
	Created       int                     `json:"created"`
	PendingReview int                     `json:"pendingReview"`
	FormsCreated  int                     `json:"formsCreated"`
	FormsDeleted  int                     `json:"formsDeleted"`
	AccountErrors int                     `json:"accountErrors"`
	Accounts      []Account               `json:"accounts"`
	Report        []fusion.ReportEntry    `json:"report,omitempty"`
}

// FusionService orchestrates reconciliation runs: it loads the fusion
// configuration, wires the runner's collaborators and records the run log.
type FusionService struct {
	client    *platform.Client
	stateRepo *repository.FusionStateRepository
	runRepo   *repository.RunRepository

	// mu serializes runs within this process; the database lock guards
	// against concurrent runs across processes.
	mu sync.Mutex
}

func NewFusionService(client *platform.Client, stateRepo *repository.FusionStateRepository, runRepo *repository.RunRepository) *FusionService {
	return &FusionService{
		client:    client,
		stateRepo: stateRepo,
		runRepo:   runRepo,
	}
}

// ListAccounts is the connector's account listing entry point: it executes a
// full reconciliation and returns the emitted fusion accounts.
func (s *FusionService) ListAccounts(ctx context.Context, fusionSourceID string) (*RunSummary, error) {
	summary, err := s.Reconcile(ctx, fusionSourceID)
	if err != nil {
		// %w keeps ErrLockHeld and ConfigError matchable for HTTP mapping.
		return nil, fmt.Errorf("Failed to list accounts: %w", err)
	}
	return summary, nil
}

// Reconcile executes one reconciliation run end to end and records it in the
// run log.
func (s *FusionService) Reconcile(ctx context.Context, fusionSourceID string) (*RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.client.GetFusionConfig(ctx, fusionSourceID)
	if err != nil {
		return nil, err
	}

	var accounts []Account
	runner, err := fusion.NewRunner(cfg, fusion.Deps{
		Accounts:   s.client,
		Identities: s.client,
		Forms:      s.client,
		State:      s.stateRepo,
		Notifier:   s.client,
		Emit: func(fi *fusion.FusionIdentity) {
			accounts = append(accounts, Account{
				Identity:   fi.NativeIdentity,
				Attributes: platform.SerializeIdentity(fi),
			})
		},
		KeepAlive: func() {
			if err := s.stateRepo.KeepAlive(context.Background(), fusionSourceID); err != nil {
				logger.Warn().Err(err).Msg("lock heartbeat failed")
			}
		},
	})
	if err != nil {
		return nil, err
	}

	runID, err := s.runRepo.Create(ctx, fusionSourceID)
	if err != nil {
		return nil, err
	}

	result, runErr := runner.Run(ctx)
	if runErr != nil {
		s.finishRun(runID, repository.RunOutcome{
			Status: repository.RunStatusFailed,
			Error:  runErr.Error(),
		})
		return nil, runErr
	}

	status := repository.RunStatusCompleted
	if result.Reset {
		status = repository.RunStatusReset
	}
	s.finishRun(runID, repository.RunOutcome{
		Status:        status,
		Linked:        result.Linked,
		Created:       result.Created,
		PendingReview: result.PendingReview,
		FormsCreated:  result.FormsCreated,
		FormsDeleted:  result.FormsDeleted,
		AccountErrors: result.AccountErrors,
	})

	return &RunSummary{
		RunID:         runID,
		Reset:         result.Reset,
		Linked:        result.Linked,
		Created:       result.Created,
		PendingReview: result.PendingReview,
		FormsCreated:  result.FormsCreated,
		FormsDeleted:  result.FormsDeleted,
		AccountErrors: result.AccountErrors,
		Accounts:      accounts,
		Report:        result.Report,
	}, nil
}

// finishRun records the run outcome; the run itself already succeeded or
// failed, so bookkeeping errors are only logged.
func (s *FusionService) finishRun(runID uuid.UUID, outcome repository.RunOutcome) {
	if err := s.runRepo.Finish(context.Background(), runID, outcome); err != nil {
		logger.Error().Err(err).Str("run_id", runID.String()).Msg("failed to finish run record")
	}
}

// Status returns the latest run record for a fusion source.
func (s *FusionService) Status(ctx context.Context, fusionSourceID string) (*repository.Run, error) {
	return s.runRepo.Latest(ctx, fusionSourceID)
}

// Runs lists run records for a fusion source, newest first.
func (s *FusionService) Runs(ctx context.Context, fusionSourceID string, limit int) ([]repository.Run, error) {
	return s.runRepo.List(ctx, fusionSourceID, limit)
}

// RequestReset arms the reset flag; the next run re-baselines instead of
// matching. The flag is mirrored onto the source's connector attributes so
// operators see it in the platform UI; the database flag is authoritative.
func (s *FusionService) RequestReset(ctx context.Context, fusionSourceID string) error {
	if err := s.stateRepo.RequestReset(ctx, fusionSourceID); err != nil {
		return err
	}
	if err := s.client.SetConnectorAttribute(ctx, fusionSourceID, "resetRequested", true); err != nil {
		logger.Warn().Err(err).Str("fusion_source", fusionSourceID).Msg("could not mirror reset flag onto the source")
	}
	logger.Info().Str("fusion_source", fusionSourceID).Msg("reset requested")
	return nil
}

// TriggerAggregation asks the platform to refresh the accounts of every
// source the fusion source manages, so the next run sees fresh data.
func (s *FusionService) TriggerAggregation(ctx context.Context, fusionSourceID string) error {
	cfg, err := s.client.GetFusionConfig(ctx, fusionSourceID)
	if err != nil {
		return err
	}
	for _, src := range cfg.Sources {
		if err := s.client.TriggerAggregation(ctx, src.ID); err != nil {
			return err
		}
	}
	return nil
}

// PendingReviews lists the outstanding review forms with their instance
// states.
type PendingReview struct {
	FormID    string `json:"formId"`
	FormName  string `json:"formName"`
	AccountID string `json:"accountId"`
	Instances int    `json:"instances"`
	Responded bool   `json:"responded"`
}

// ListPendingReviews returns the connector's outstanding review forms.
func (s *FusionService) ListPendingReviews(ctx context.Context) ([]PendingReview, error) {
	defs, err := s.client.ListFusionForms(ctx)
	if err != nil {
		return nil, err
	}

	reviews := make([]PendingReview, 0, len(defs))
	for _, def := range defs {
		review := PendingReview{
			FormID:    def.ID,
			FormName:  def.Name,
			AccountID: def.AccountID,
		}
		instances, err := s.client.ListInstances(ctx, def.ID)
		if err != nil {
			return nil, err
		}
		review.Instances = len(instances)
		for _, inst := range instances {
			if inst.State.HasResponse() {
				review.Responded = true
				break
			}
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}
