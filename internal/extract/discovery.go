package extract

import (
	"context"

	"go.uber.org/zap"

	"github.com/adsync-io/adsync/pkg/errors"
	"github.com/adsync-io/adsync/pkg/gads"
	"github.com/adsync-io/adsync/pkg/logger"
)

// Account is one advertising account discovered under a manager
// account. The id is opaque; the name is display-only.
type Account struct {
	ID   string
	Name string
}

// RowSource is the query surface the extraction layer consumes. The
// concrete implementation is *gads.Client.
type RowSource interface {
	Search(ctx context.Context, customerID, query string) ([]gads.SearchRow, error)
}

// DiscoverAccounts lists the active, non-manager child accounts of a
// manager account, in discovery order. The source may report an
// account more than once; entries are deduplicated by id and the
// last-seen name wins. Any source error is returned as-is: a partial
// account list is unsafe to continue with, so discovery failures are
// fatal upstream.
func DiscoverAccounts(ctx context.Context, src RowSource, managerID string) ([]Account, error) {
	log := logger.With(zap.String("component", "discovery"), zap.String("manager_id", managerID))
	log.Info("discovering client accounts")

	rows, err := src.Search(ctx, managerID, discoveryQuery)
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeOf(err), "account discovery failed")
	}

	var order []string
	names := make(map[string]string)
	for _, row := range rows {
		id := row.CustomerClient.CustomerID()
		if id == "" {
			continue
		}
		if _, seen := names[id]; !seen {
			order = append(order, id)
		}
		names[id] = row.CustomerClient.DescriptiveName
	}

	accounts := make([]Account, 0, len(order))
	for _, id := range order {
		accounts = append(accounts, Account{ID: id, Name: names[id]})
	}

	log.Info("discovery complete", zap.Int("accounts", len(accounts)))
	return accounts, nil
}
