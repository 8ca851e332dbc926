// Package coordinator fans account extraction out across a bounded
// worker pool and streams the per-account results back in completion
// order. The caller consumes the result channel from a single
// goroutine, so downstream state such as write tracking needs no
// locking.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/adsync-io/adsync/internal/extract"
	"github.com/adsync-io/adsync/pkg/errors"
	"github.com/adsync-io/adsync/pkg/logger"
)

// Func extracts one account's data within the reporting window.
type Func func(ctx context.Context, account extract.Account) extract.AccountResult

// Result is one account's outcome. Err is set only when the work
// function panicked or the run context was cancelled before the
// account could start; ordinary sub-task failures surface as empty
// record sets inside Data.
type Result struct {
	Account extract.Account
	Data    extract.AccountResult
	Err     error
}

// Run launches up to workers concurrent extractions over accounts and
// returns a channel that yields one Result per account in completion
// order. The channel closes once every account has been reported.
func Run(ctx context.Context, accounts []extract.Account, workers int, fn Func) <-chan Result {
	if workers < 1 {
		workers = 1
	}
	log := logger.With(zap.String("component", "coordinator"))
	log.Info("starting account fan-out",
		zap.Int("accounts", len(accounts)),
		zap.Int("workers", workers))

	results := make(chan Result, workers)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	go func() {
		defer close(results)
		for _, account := range accounts {
			select {
			case <-ctx.Done():
				results <- Result{Account: account, Err: errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "run cancelled before account started")}
				continue
			case sem <- struct{}{}:
			}

			wg.Add(1)
			go func(account extract.Account) {
				defer wg.Done()
				defer func() { <-sem }()
				results <- runOne(ctx, account, fn)
			}(account)
		}
		wg.Wait()
	}()

	return results
}

func runOne(ctx context.Context, account extract.Account, fn Func) (res Result) {
	res.Account = account
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Error("account extraction panicked",
				zap.String("customer_id", account.ID),
				zap.Any("panic", r))
			res.Err = errors.New(errors.ErrorTypeUnknown, fmt.Sprintf("extraction panicked: %v", r))
		}
	}()
	res.Data = fn(ctx, account)
	return res
}
