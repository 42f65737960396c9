package fusion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/attr"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/forms"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/logger"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/matching"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/scoring"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/uniqueid"

	"golang.org/x/sync/errgroup"
)

// Deps are the external collaborators a run consumes.
type Deps struct {
	Accounts   AccountDirectory
	Identities IdentityDirectory
	Forms      FormClient
	State      StateStore
	Notifier   Notifier
	Emit       Emitter
	// KeepAlive is invoked on a fixed interval during the run to prevent
	// host-side timeouts. Optional.
	KeepAlive func()
}

// ReportEntry is one audit-report row: every rule scored between an account
// and an identity, with early-abort disabled.
type ReportEntry struct {
	AccountID      string           `json:"accountId"`
	AccountName    string           `json:"accountName"`
	NativeIdentity string           `json:"nativeIdentity"`
	Reports        []scoring.Report `json:"reports"`
}

// RunResult summarizes a completed reconciliation run.
type RunResult struct {
	Reset          bool
	Identities     []*FusionIdentity
	Linked         int
	Created        int
	PendingReview  int
	FormsCreated   int
	FormsDeleted   int
	AccountErrors  int
	Report         []ReportEntry
}

// Runner executes the reconciliation algorithm for one fusion source.
type Runner struct {
	cfg    Config
	engine *matching.Engine
	deps   Deps
}

// NewRunner validates the configuration and builds the matching engine.
func NewRunner(cfg Config, deps Deps) (*Runner, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine, err := matching.NewEngine(cfg.Matching)
	if err != nil {
		return nil, configErrorf("%v", err)
	}

	if deps.Accounts == nil || deps.Identities == nil || deps.Forms == nil || deps.State == nil {
		return nil, configErrorf("runner is missing a required collaborator")
	}

	return &Runner{cfg: cfg, engine: engine, deps: deps}, nil
}

// runState is the per-run working set. A fresh one is built for every run so
// nothing leaks across runs in a long-lived process.
type runState struct {
	queue          *WorkQueue
	identities     []*FusionIdentity
	identityByID   map[string]*FusionIdentity
	identityByNative map[string]*FusionIdentity
	platform       []*PlatformIdentity
	sender         *User
	forms          *FormState
	// newNonManaged buffers identities created this run, drained in batches
	// through the unique attribute generators.
	newNonManaged []*FusionIdentity
	// createdFormURLs are review form URLs issued this run.
	createdFormURLs []string
	generators      []*uniqueid.Generator
	result          RunResult
}

// Run executes the full phase sequence. It either completes or fails as a
// whole; the process lock is released iff this run acquired it.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	if err := r.deps.State.AcquireLock(ctx, r.cfg.FusionSourceID); err != nil {
		return nil, err
	}
	defer func() {
		if err := r.deps.State.ReleaseLock(context.WithoutCancel(ctx), r.cfg.FusionSourceID); err != nil {
			logger.Error().Err(err).Msg("failed to release fusion process lock")
		}
	}()

	stopKeepAlive := r.startKeepAlive(ctx)
	defer stopKeepAlive()

	// A set reset flag short-circuits the whole algorithm.
	reset, err := r.deps.State.ResetFlag(ctx, r.cfg.FusionSourceID)
	if err != nil {
		return nil, fmt.Errorf("read reset flag: %w", err)
	}
	if reset {
		result, err := r.reset(ctx)
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	state := &runState{
		identityByID:     make(map[string]*FusionIdentity),
		identityByNative: make(map[string]*FusionIdentity),
	}

	if err := r.fetch(ctx, state); err != nil {
		return nil, err
	}
	if err := r.loadFormData(ctx, state); err != nil {
		return nil, err
	}

	r.processFusionAccounts(state)
	r.processIdentities(state)
	r.processDecisions(state)
	if err := r.processManagedAccounts(ctx, state); err != nil {
		return nil, err
	}
	r.reconcilePendingFormState(state)
	if err := r.refreshUniqueAttributes(ctx, state); err != nil {
		return nil, err
	}
	if err := r.saveState(ctx, state); err != nil {
		return nil, err
	}
	r.emit(state)
	r.cleanup(ctx, state)

	state.result.Identities = state.identities
	counts := state.queue.Classified()
	state.result.Linked = counts[ClassLinked]
	state.result.Created = counts[ClassCreated]
	state.result.PendingReview = counts[ClassPendingReview]

	logger.Info().
		Int("linked", state.result.Linked).
		Int("created", state.result.Created).
		Int("pending_review", state.result.PendingReview).
		Int("unclassified", state.queue.Len()).
		Msg("fusion run completed")

	return &state.result, nil
}

// reset deletes every outstanding review form, clears the per-source
// cumulative counts, disables the reset flag and exits without matching.
func (r *Runner) reset(ctx context.Context) (*RunResult, error) {
	logger.Info().Str("fusion_source", r.cfg.FusionSourceID).Msg("reset flag set, re-baselining fusion state")

	defs, err := r.deps.Forms.ListFusionForms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list review forms: %w", err)
	}
	deleted := 0
	for _, def := range defs {
		if err := r.deps.Forms.DeleteForm(ctx, def.ID); err != nil {
			logger.Error().Err(err).Str("form_id", def.ID).Msg("failed to delete review form during reset")
			continue
		}
		deleted++
	}

	if err := r.deps.State.ClearCumulativeCounts(ctx, r.cfg.FusionSourceID); err != nil {
		return nil, fmt.Errorf("clear cumulative counts: %w", err)
	}
	if err := r.deps.State.ClearResetFlag(ctx, r.cfg.FusionSourceID); err != nil {
		return nil, fmt.Errorf("clear reset flag: %w", err)
	}

	return &RunResult{Reset: true, FormsDeleted: deleted}, nil
}

// fetch loads fusion accounts, directory identities, managed accounts and
// the notification sender in parallel.
func (r *Runner) fetch(ctx context.Context, state *runState) error {
	group, gctx := errgroup.WithContext(ctx)

	var managed []*ManagedAccount

	group.Go(func() error {
		identities, err := r.deps.Accounts.ListFusionAccounts(gctx, r.cfg.FusionSourceID)
		if err != nil {
			return fmt.Errorf("fetch fusion accounts: %w", err)
		}
		state.identities = identities
		return nil
	})

	group.Go(func() error {
		platform, err := r.deps.Identities.ListIdentities(gctx)
		if err != nil {
			return fmt.Errorf("fetch identities: %w", err)
		}
		state.platform = platform
		return nil
	})

	group.Go(func() error {
		accounts, err := r.fetchManagedAccounts(gctx)
		if err != nil {
			return err
		}
		managed = accounts
		return nil
	})

	group.Go(func() error {
		sender, err := r.deps.Identities.GetSender(gctx, r.cfg.FusionSourceID)
		if err != nil {
			return preconditionf("resolve notification sender", "%v", err)
		}
		state.sender = sender
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	state.queue = NewWorkQueue(managed)
	for _, fi := range state.identities {
		if fi.IdentityID != "" {
			state.identityByID[fi.IdentityID] = fi
		}
		state.identityByNative[fi.NativeIdentity] = fi
		fi.AddAction(ActionFetched)
	}

	logger.Info().
		Int("managed_accounts", state.queue.Len()).
		Int("fusion_identities", len(state.identities)).
		Int("directory_identities", len(state.platform)).
		Msg("fetch phase complete")
	return nil
}

// fetchManagedAccounts lists every managed source concurrently. Sources
// configured with an account-limit increment fetch incrementally: the
// effective limit is the persisted cumulative count plus the increment, so
// successive runs converge on full coverage at bounded per-run cost.
func (r *Runner) fetchManagedAccounts(ctx context.Context) ([]*ManagedAccount, error) {
	group, gctx := errgroup.WithContext(ctx)
	perSource := make([][]*ManagedAccount, len(r.cfg.Sources))

	for i, src := range r.cfg.Sources {
		i, src := i, src
		group.Go(func() error {
			limit := 0
			if src.AccountLimitIncrement > 0 {
				cumulative, err := r.deps.State.CumulativeCount(gctx, r.cfg.FusionSourceID, src.ID)
				if err != nil {
					return fmt.Errorf("read cumulative count for source %s: %w", src.ID, err)
				}
				limit = cumulative + src.AccountLimitIncrement
			}

			accounts, err := r.deps.Accounts.ListAccounts(gctx, src.ID, limit)
			if err != nil {
				return fmt.Errorf("fetch accounts from source %s: %w", src.Name, err)
			}
			for _, acct := range accounts {
				if acct.SourceName == "" {
					acct.SourceName = src.Name
				}
			}
			perSource[i] = accounts
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	var all []*ManagedAccount
	for _, accounts := range perSource {
		all = append(all, accounts...)
	}
	return all, nil
}

// loadFormData fetches outstanding review forms and their instances and
// classifies every decision. Accounts governed by a still-pending form leave
// the queue here so no duplicate form is issued.
func (r *Runner) loadFormData(ctx context.Context, state *runState) error {
	defs, err := r.deps.Forms.ListFusionForms(ctx)
	if err != nil {
		return fmt.Errorf("list review forms: %w", err)
	}

	instancesByDef := make(map[string][]forms.Instance, len(defs))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(r.cfg.BatchSize)
	results := make([][]forms.Instance, len(defs))
	for i, def := range defs {
		i, def := i, def
		group.Go(func() error {
			instances, err := r.deps.Forms.ListInstances(gctx, def.ID)
			if err != nil {
				return fmt.Errorf("list instances of form %s: %w", def.ID, err)
			}
			results[i] = instances
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	for i, def := range defs {
		instancesByDef[def.ID] = results[i]
	}

	state.forms = ClassifyForms(defs, instancesByDef)

	for _, accountID := range state.forms.PendingAccountIDs {
		state.queue.Take(accountID, ClassPendingReview)
	}

	linkDecisions := 0
	for _, decisions := range state.forms.LinkDecisionsByIdentityID {
		linkDecisions += len(decisions)
	}

	logger.Info().
		Int("forms", len(defs)).
		Int("new_identity_decisions", len(state.forms.NewIdentityDecisions)).
		Int("link_decisions", linkDecisions).
		Int("pending_accounts", len(state.forms.PendingAccountIDs)).
		Msg("form data phase complete")
	return nil
}

// processFusionAccounts depletes the queue of accounts already linked to an
// existing fusion identity. Each link whose account disappeared from its
// source carries its own consecutive-miss counter, cleared on reappearance
// (Link does that); a link missing for as many runs as the cleanup threshold
// is dropped.
func (r *Runner) processFusionAccounts(state *runState) {
	for _, fi := range state.identities {
		for accountID := range fi.LinkedAccountIDs {
			if acct, ok := state.queue.Take(accountID, ClassLinked); ok {
				fi.Link(acct)
				continue
			}
			if _, classified := state.queue.Classification(accountID); classified {
				continue
			}
			if fi.MissingCounts == nil {
				fi.MissingCounts = make(map[string]int)
			}
			fi.MissingCounts[accountID]++
			if fi.MissingCounts[accountID] >= r.cfg.CleanupThreshold {
				delete(fi.LinkedAccountIDs, accountID)
				delete(fi.MissingCounts, accountID)
				logger.Info().
					Str("identity", fi.NativeIdentity).
					Str("account_id", accountID).
					Msg("dropping link to account missing beyond cleanup threshold")
			}
		}
	}
}

// processIdentities depletes the queue of identity-bearing accounts: those
// already correlated to a directory identity. A fusion identity is created
// for any directory identity seen for the first time.
func (r *Runner) processIdentities(state *runState) {
	byID := make(map[string]*PlatformIdentity, len(state.platform))
	for _, pi := range state.platform {
		byID[pi.ID] = pi
	}

	for _, acct := range state.queue.Remaining() {
		if acct.IdentityID == "" {
			continue
		}

		if fi, ok := state.identityByID[acct.IdentityID]; ok {
			if taken, ok := state.queue.Take(acct.ID, ClassLinked); ok {
				fi.Link(taken)
				fi.AddAction(ActionCorrelated)
			}
			continue
		}

		pi, ok := byID[acct.IdentityID]
		if !ok {
			// Correlation points at an identity the directory no longer
			// returns; leave the account for the matching pass.
			continue
		}

		taken, ok := state.queue.Take(acct.ID, ClassCreated)
		if !ok {
			continue
		}
		fi := NewFusionIdentity(pi.ID, pi.Name, acct.SourceName)
		fi.IdentityID = pi.ID
		fi.Attributes.Merge(pi.Attributes)
		fi.Link(taken)
		fi.AddAction(ActionCreated)
		fi.AddAction(ActionCorrelated)
		r.addIdentity(state, fi)
	}
}

// processDecisions applies finished human decisions: "new identity" answers
// create one, link answers attach the account to the chosen identity.
func (r *Runner) processDecisions(state *runState) {
	for _, decision := range state.forms.NewIdentityDecisions {
		acct, ok := state.queue.Take(decision.Account.ID, ClassCreated)
		if !ok {
			logger.Warn().
				Str("account_id", decision.Account.ID).
				Msg("new-identity decision targets an account not in the queue")
			continue
		}
		fi := NewFusionIdentity(r.nativeIdentityFor(acct), acct.Name, acct.SourceName)
		fi.Link(acct)
		fi.AddStatus(StatusManual)
		fi.AddAction(ActionCreated)
		fi.AddAction(ActionReviewed)
		r.addIdentity(state, fi)
		logger.Info().
			Str("account_id", acct.ID).
			Str("submitter", decision.Submitter.Name).
			Msg("created identity from reviewer decision")
	}

	targets := make([]string, 0, len(state.forms.LinkDecisionsByIdentityID))
	for identityID := range state.forms.LinkDecisionsByIdentityID {
		targets = append(targets, identityID)
	}
	sort.Strings(targets)

	for _, identityID := range targets {
		fi := state.identityByID[identityID]
		if fi == nil {
			fi = state.identityByNative[identityID]
		}
		for _, decision := range state.forms.LinkDecisionsByIdentityID[identityID] {
			if fi == nil {
				logger.Warn().
					Str("identity_id", identityID).
					Str("account_id", decision.Account.ID).
					Msg("link decision targets an unknown identity")
				continue
			}
			acct, ok := state.queue.Take(decision.Account.ID, ClassLinked)
			if !ok {
				continue
			}
			fi.Link(acct)
			fi.AddStatus(StatusManual)
			fi.AddAction(ActionReviewed)
		}
	}
}

// processManagedAccounts runs the matching engine over every account still
// in the queue: no match creates an identity, exactly one match auto-links,
// several matches route to human review. Failures are surfaced per account
// and never abort the run.
func (r *Runner) processManagedAccounts(ctx context.Context, state *runState) error {
	for _, acct := range state.queue.Remaining() {
		if err := r.processManagedAccount(ctx, state, acct); err != nil {
			state.result.AccountErrors++
			logger.Error().
				Err(err).
				Str("account_id", acct.ID).
				Str("source", acct.SourceName).
				Msg("failed to process managed account")
		}
	}
	return ctx.Err()
}

func (r *Runner) processManagedAccount(ctx context.Context, state *runState, acct *ManagedAccount) error {
	var matches []FusionMatch
	for _, fi := range state.identities {
		var result matching.Result
		if r.cfg.IncludeReport {
			result = r.engine.CompareReport(acct.Attributes, fi.Attributes)
			if len(result.Reports) > 0 {
				state.result.Report = append(state.result.Report, ReportEntry{
					AccountID:      acct.ID,
					AccountName:    acct.Name,
					NativeIdentity: fi.NativeIdentity,
					Reports:        result.Reports,
				})
			}
		} else {
			result = r.engine.Compare(acct.Attributes, fi.Attributes)
		}
		if result.Matched {
			matches = append(matches, FusionMatch{Identity: fi, Scores: result.Reports})
		}
	}

	switch len(matches) {
	case 0:
		taken, ok := state.queue.Take(acct.ID, ClassCreated)
		if !ok {
			return nil
		}
		fi := NewFusionIdentity(r.nativeIdentityFor(taken), taken.Name, taken.SourceName)
		fi.Link(taken)
		fi.AddStatus(StatusUnmatched)
		fi.AddAction(ActionCreated)
		r.addIdentity(state, fi)
		return nil

	case 1:
		taken, ok := state.queue.Take(acct.ID, ClassLinked)
		if !ok {
			return nil
		}
		fi := matches[0].Identity
		fi.Link(taken)
		fi.AddAction(ActionCorrelated)
		fi.Matches = append(fi.Matches, matches[0])
		return nil

	default:
		// Ambiguous: all candidates retained for human review.
		return r.routeToReview(ctx, state, acct, matches)
	}
}

// routeToReview creates the candidate review form for an ambiguous account
// and notifies reviewers best-effort.
func (r *Runner) routeToReview(ctx context.Context, state *runState, acct *ManagedAccount, matches []FusionMatch) error {
	options := make([]forms.CandidateOption, 0, len(matches))
	for _, match := range matches {
		options = append(options, forms.CandidateOption{
			IdentityID:   match.Identity.effectiveID(),
			DisplayName:  match.Identity.DisplayName,
			ScoreSummary: summarizeScores(match.Scores),
		})
	}

	name := forms.BuildFormName(acct.SourceName, acct.Name, acct.ID)
	ref := AccountRef{ID: acct.ID, Name: acct.Name, SourceName: acct.SourceName}

	_, instances, err := r.deps.Forms.CreateCandidateForm(ctx, name, ref, options, r.cfg.Reviewers)
	if err != nil {
		return fmt.Errorf("create review form: %w", err)
	}
	state.result.FormsCreated++

	if _, ok := state.queue.Take(acct.ID, ClassPendingReview); !ok {
		return nil
	}

	for _, inst := range instances {
		if inst.StandAloneFormURL == "" {
			continue
		}
		state.createdFormURLs = append(state.createdFormURLs, inst.StandAloneFormURL)
		for _, match := range matches {
			match.Identity.AddStatus(StatusRequested)
			match.Identity.PendingReviewURLs = append(match.Identity.PendingReviewURLs, inst.StandAloneFormURL)
		}
	}

	if r.deps.Notifier != nil && len(instances) > 0 {
		url := instances[0].StandAloneFormURL
		if err := r.deps.Notifier.NotifyReviewers(ctx, state.sender, r.cfg.Reviewers, url); err != nil {
			logger.Warn().Err(err).Str("account_id", acct.ID).Msg("review notification failed")
		}
	}
	return nil
}

// reconcilePendingFormState recomputes the transient reviewer entitlements:
// every reviewer's fusion identity carries the currently open form URLs.
func (r *Runner) reconcilePendingFormState(state *runState) {
	open := append([]string{}, state.createdFormURLs...)
	for _, urls := range state.forms.PendingURLsByAccountID {
		open = append(open, urls...)
	}
	sort.Strings(open)

	for _, reviewer := range r.cfg.Reviewers {
		fi := state.identityByID[reviewer.ID]
		if fi == nil {
			continue
		}
		fi.AddStatus(StatusReviewer)
		fi.PendingReviewURLs = open
	}
}

// refreshUniqueAttributes drains the buffer of identities created this run
// through the unique attribute generators in fixed-size batches. Batches are
// removed from the buffer as they are submitted to bound peak memory.
// Generation itself is sequential (the counter cache and ledger are not
// shared across goroutines); submission fans out bounded by the batch size.
func (r *Runner) refreshUniqueAttributes(ctx context.Context, state *runState) error {
	if len(state.newNonManaged) == 0 || len(r.cfg.UniqueAttributes) == 0 {
		return nil
	}

	generators := make([]*uniqueid.Generator, 0, len(r.cfg.UniqueAttributes))
	for _, def := range r.cfg.UniqueAttributes {
		existing, err := r.deps.State.AttributeValues(ctx, r.cfg.FusionSourceID, def.Name)
		if err != nil {
			return fmt.Errorf("load value ledger for attribute %s: %w", def.Name, err)
		}
		gen, err := uniqueid.NewGenerator(def, existing)
		if err != nil {
			return err
		}
		generators = append(generators, gen)
	}
	state.generators = generators

	for len(state.newNonManaged) > 0 {
		size := r.cfg.BatchSize
		if size > len(state.newNonManaged) {
			size = len(state.newNonManaged)
		}
		batch := state.newNonManaged[:size]
		state.newNonManaged = state.newNonManaged[size:]

		for _, fi := range batch {
			for _, gen := range generators {
				value, err := gen.Generate(fi.Attributes, nil)
				if err != nil {
					// Fatal for this identity only.
					state.result.AccountErrors++
					fi.AddStatus(StatusOrphan)
					logger.Error().
						Err(err).
						Str("identity", fi.NativeIdentity).
						Msg("unique attribute generation failed")
					break
				}
				fi.Attributes[gen.Definition().Name] = attr.String(value)
			}
		}
	}
	return nil
}

// saveState persists the cumulative fetch counts and the unique-attribute
// value ledgers.
func (r *Runner) saveState(ctx context.Context, state *runState) error {
	for _, src := range r.cfg.Sources {
		if src.AccountLimitIncrement <= 0 {
			continue
		}
		cumulative, err := r.deps.State.CumulativeCount(ctx, r.cfg.FusionSourceID, src.ID)
		if err != nil {
			return fmt.Errorf("read cumulative count for source %s: %w", src.ID, err)
		}
		next := cumulative + src.AccountLimitIncrement
		if err := r.deps.State.SetCumulativeCount(ctx, r.cfg.FusionSourceID, src.ID, next); err != nil {
			return fmt.Errorf("save cumulative count for source %s: %w", src.ID, err)
		}
	}

	for _, gen := range state.generators {
		name := gen.Definition().Name
		if err := r.deps.State.SaveAttributeValues(ctx, r.cfg.FusionSourceID, name, gen.Values()); err != nil {
			return fmt.Errorf("save value ledger for attribute %s: %w", name, err)
		}
	}
	return nil
}

// emit hands every fusion identity to the caller.
func (r *Runner) emit(state *runState) {
	if r.deps.Emit == nil {
		return
	}
	for _, fi := range state.identities {
		if fi.HasStatus(StatusOrphan) {
			// No unique identifier could be produced; not emittable.
			continue
		}
		r.deps.Emit(fi)
	}
}

// cleanup deletes resolved and cancelled forms. Failures are logged; the
// forms will be retried next run.
func (r *Runner) cleanup(ctx context.Context, state *runState) {
	for _, formID := range state.forms.DeleteFormIDs {
		if err := r.deps.Forms.DeleteForm(ctx, formID); err != nil {
			logger.Error().Err(err).Str("form_id", formID).Msg("failed to delete resolved review form")
			continue
		}
		state.result.FormsDeleted++
	}
}

// startKeepAlive pings the host on the configured interval until stopped.
func (r *Runner) startKeepAlive(ctx context.Context) func() {
	if r.deps.KeepAlive == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(r.cfg.KeepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.deps.KeepAlive()
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() { close(done) }
}

func (r *Runner) addIdentity(state *runState, fi *FusionIdentity) {
	state.identities = append(state.identities, fi)
	if fi.IdentityID != "" {
		state.identityByID[fi.IdentityID] = fi
	}
	state.identityByNative[fi.NativeIdentity] = fi
	state.newNonManaged = append(state.newNonManaged, fi)
}

// nativeIdentityFor picks the correlation key for an identity created from an
// account. The configured identity attribute wins when the account carries
// it; otherwise the account's own native identity is used.
func (r *Runner) nativeIdentityFor(acct *ManagedAccount) string {
	if r.cfg.IdentityAttribute != "" {
		if v := acct.Attributes.GetString(r.cfg.IdentityAttribute); v != "" {
			return v
		}
	}
	return acct.NativeIdentity
}

// effectiveID is the identifier a review form option should carry.
func (f *FusionIdentity) effectiveID() string {
	if f.IdentityID != "" {
		return f.IdentityID
	}
	return f.NativeIdentity
}

// summarizeScores renders score reports for display in a form option.
func summarizeScores(reports []scoring.Report) string {
	if len(reports) == 0 {
		return ""
	}
	out := reports[0].String()
	for _, rep := range reports[1:] {
		out += "; " + rep.String()
	}
	return out
}
