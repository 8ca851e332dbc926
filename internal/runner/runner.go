// Package runner ties discovery, the account fan-out, and the sink
// together into one reporting run.
package runner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adsync-io/adsync/internal/coordinator"
	"github.com/adsync-io/adsync/internal/extract"
	"github.com/adsync-io/adsync/internal/sink"
	"github.com/adsync-io/adsync/pkg/config"
	"github.com/adsync-io/adsync/pkg/logger"
)

// Summary is the outcome of one run. Load and per-account errors are
// counted rather than fatal; only setup and discovery failures abort a
// run.
type Summary struct {
	Window     extract.Window
	Accounts   int
	Failed     int
	LoadErrors int
}

// Runner drives one end-to-end reporting run.
type Runner struct {
	src    extract.RowSource
	writer *sink.Writer
	cfg    *config.RunConfig
	now    func() time.Time
	logger *zap.Logger
}

// New assembles a runner over a row source and a sink writer.
func New(src extract.RowSource, writer *sink.Writer, cfg *config.RunConfig) *Runner {
	return &Runner{
		src:    src,
		writer: writer,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With(zap.String("component", "runner")),
	}
}

// ReportingWindow is the inclusive date range a run covers: the
// lookback window ending yesterday. Today is excluded because its
// metrics are still moving.
func ReportingWindow(now time.Time, lookbackDays int) extract.Window {
	today := now.UTC().Truncate(24 * time.Hour)
	return extract.Window{
		Start: today.AddDate(0, 0, -lookbackDays),
		End:   today.AddDate(0, 0, -1),
	}
}

// Run executes one reporting run and returns its summary. The error is
// non-nil only when the run could not start: account discovery failed
// or no account was resolved.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	window := ReportingWindow(r.now(), r.cfg.LookbackDays)
	summary := &Summary{Window: window}

	accounts, err := r.resolveAccounts(ctx)
	if err != nil {
		return summary, err
	}
	summary.Accounts = len(accounts)
	r.logger.Info("starting run",
		zap.Int("accounts", len(accounts)),
		zap.String("start_date", window.StartDate()),
		zap.String("end_date", window.EndDate()))

	ex := extract.NewExtractor(r.src)
	results := coordinator.Run(ctx, accounts, r.cfg.Workers, func(ctx context.Context, account extract.Account) extract.AccountResult {
		return ex.Account(ctx, account, window)
	})

	for result := range results {
		if result.Err != nil {
			summary.Failed++
			r.logger.Error("account failed",
				zap.String("customer_id", result.Account.ID),
				zap.Error(result.Err))
			continue
		}
		summary.LoadErrors += r.route(ctx, result.Data)
	}

	r.logger.Info("run complete",
		zap.Int("accounts", summary.Accounts),
		zap.Int("failed_accounts", summary.Failed),
		zap.Int("load_errors", summary.LoadErrors),
		zap.Int("campaign_rows", r.writer.RowsLoaded(config.TableCampaign)),
		zap.Int("geo_rows", r.writer.RowsLoaded(config.TableGeo)),
		zap.Int("search_rows", r.writer.RowsLoaded(config.TableSearch)))
	return summary, nil
}

// resolveAccounts lists the accounts to extract. With a customer id
// configured the run covers just that account; otherwise the manager
// account's enabled non-manager clients are discovered.
func (r *Runner) resolveAccounts(ctx context.Context) ([]extract.Account, error) {
	if r.cfg.CustomerID != "" {
		return []extract.Account{{ID: r.cfg.CustomerID}}, nil
	}
	accounts, err := extract.DiscoverAccounts(ctx, r.src, r.cfg.ManagerID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		r.logger.Warn("manager account has no enabled client accounts",
			zap.String("manager_id", r.cfg.ManagerID))
	}
	return accounts, nil
}

// route loads one account's record sets into their tables and returns
// the number of failed loads.
func (r *Runner) route(ctx context.Context, data extract.AccountResult) int {
	failures := 0
	if err := r.writer.Route(ctx, config.TableCampaign, data.Campaign); err != nil {
		failures++
	}
	if err := r.writer.Route(ctx, config.TableGeo, data.Geo); err != nil {
		failures++
	}
	if err := r.writer.Route(ctx, config.TableSearch, data.Search); err != nil {
		failures++
	}
	return failures
}
