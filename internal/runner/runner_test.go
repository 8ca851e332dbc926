package runner

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsync-io/adsync/internal/sink"
	"github.com/adsync-io/adsync/pkg/config"
	"github.com/adsync-io/adsync/pkg/errors"
	"github.com/adsync-io/adsync/pkg/gads"
	"github.com/adsync-io/adsync/pkg/records"
)

// fakeSource serves discovery plus one metrics row per account for
// every reporting query. geoErrFor simulates a broken sub-task on one
// account.
type fakeSource struct {
	clients      []string
	discoveryErr error
	geoErrFor    string
}

func (f *fakeSource) Search(_ context.Context, customerID string, query string) ([]gads.SearchRow, error) {
	switch {
	case strings.Contains(query, "customer_client"):
		if f.discoveryErr != nil {
			return nil, f.discoveryErr
		}
		rows := make([]gads.SearchRow, 0, len(f.clients))
		for _, id := range f.clients {
			rows = append(rows, gads.SearchRow{
				CustomerClient: &gads.CustomerClient{ClientCustomer: "customers/" + id, DescriptiveName: "acct-" + id},
			})
		}
		return rows, nil
	case strings.Contains(query, "FROM geographic_view"):
		if customerID == f.geoErrFor {
			return nil, errors.New(errors.ErrorTypeQuery, "geo query rejected")
		}
		return []gads.SearchRow{{
			Campaign:       &gads.Campaign{ID: 1, Name: "camp"},
			Segments:       &gads.Segments{Date: "2026-08-01"},
			GeographicView: &gads.GeographicView{CountryCriterionID: 2840},
			Metrics:        &gads.Metrics{Clicks: 1, Impressions: 2, CostMicros: 100_000},
		}}, nil
	case strings.Contains(query, "FROM search_term_view"):
		return []gads.SearchRow{{
			Campaign:       &gads.Campaign{ID: 1, Name: "camp"},
			AdGroup:        &gads.AdGroup{ID: 10, Name: "group"},
			Segments:       &gads.Segments{Date: "2026-08-01", Device: "DESKTOP"},
			SearchTermView: &gads.SearchTermView{SearchTerm: "term"},
			Metrics:        &gads.Metrics{Clicks: 1, Impressions: 2, CostMicros: 100_000},
		}}, nil
	case strings.Contains(query, "campaign.status != 'REMOVED'"):
		return nil, nil
	case strings.Contains(query, "conversion_action_name"):
		return nil, nil
	case strings.Contains(query, "FROM ad_group"):
		return []gads.SearchRow{{
			Campaign: &gads.Campaign{ID: 1, Name: "camp", Status: "ENABLED"},
			AdGroup:  &gads.AdGroup{ID: 10, Name: "group"},
			Segments: &gads.Segments{Date: "2026-08-01"},
			Metrics:  &gads.Metrics{Clicks: 3, Impressions: 30, CostMicros: 2_000_000},
		}}, nil
	default: // pmax campaign query
		return nil, nil
	}
}

type loadCall struct {
	table    string
	rows     int
	truncate bool
}

type fakeTableWriter struct {
	calls []loadCall
}

func (f *fakeTableWriter) Write(_ context.Context, table string, set *records.RecordSet, truncate bool) error {
	f.calls = append(f.calls, loadCall{table: table, rows: set.Len(), truncate: truncate})
	return nil
}

func (f *fakeTableWriter) countFor(table string) (loads int, truncates int) {
	for _, c := range f.calls {
		if c.table != table {
			continue
		}
		loads++
		if c.truncate {
			truncates++
		}
	}
	return loads, truncates
}

func runConfig() *config.RunConfig {
	cfg := config.NewRunConfig()
	cfg.ManagerID = "999"
	cfg.ProjectID = "proj"
	cfg.DatasetID = "ds"
	return cfg
}

func TestReportingWindow(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)
	w := ReportingWindow(now, 90)
	assert.Equal(t, "2026-06-01", w.StartDate())
	assert.Equal(t, "2026-08-29", w.EndDate())
}

func TestRun_FanOutThreeAccountsOneGeoFailure(t *testing.T) {
	src := &fakeSource{clients: []string{"A", "B", "C"}, geoErrFor: "B"}
	tw := &fakeTableWriter{}

	summary, err := New(src, sink.NewWriter(tw), runConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Accounts)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, summary.LoadErrors)

	campaignLoads, campaignTruncates := tw.countFor(config.TableCampaign)
	geoLoads, geoTruncates := tw.countFor(config.TableGeo)
	searchLoads, searchTruncates := tw.countFor(config.TableSearch)

	// B's geo sub-task degraded to an empty set, so its geo load is
	// skipped while the other tables still get all three accounts.
	assert.Equal(t, 3, campaignLoads)
	assert.Equal(t, 2, geoLoads)
	assert.Equal(t, 3, searchLoads)

	// Exactly one replace per table regardless of completion order.
	assert.Equal(t, 1, campaignTruncates)
	assert.Equal(t, 1, geoTruncates)
	assert.Equal(t, 1, searchTruncates)
}

func TestRun_DiscoveryFailureAbortsBeforeExtraction(t *testing.T) {
	src := &fakeSource{discoveryErr: errors.New(errors.ErrorTypeAuthentication, "token rejected")}
	tw := &fakeTableWriter{}

	summary, err := New(src, sink.NewWriter(tw), runConfig()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
	assert.Equal(t, 0, summary.Accounts)
	assert.Empty(t, tw.calls)
}

func TestRun_SingleAccountModeSkipsDiscovery(t *testing.T) {
	src := &fakeSource{discoveryErr: errors.New(errors.ErrorTypeAuthentication, "should not be called")}
	tw := &fakeTableWriter{}

	cfg := runConfig()
	cfg.ManagerID = ""
	cfg.CustomerID = "777"

	summary, err := New(src, sink.NewWriter(tw), cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Accounts)

	campaignLoads, _ := tw.countFor(config.TableCampaign)
	assert.Equal(t, 1, campaignLoads)
}

func TestRun_NoClientAccountsIsCleanNoOp(t *testing.T) {
	src := &fakeSource{clients: nil}
	tw := &fakeTableWriter{}

	summary, err := New(src, sink.NewWriter(tw), runConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Accounts)
	assert.Empty(t, tw.calls)
}
