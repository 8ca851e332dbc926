// Package extract pulls one account's performance metrics out of the
// ads API and normalizes them into record sets, one per destination
// table. Sub-task failures degrade to empty sets so a single bad query
// never takes down the other sub-tasks or the rest of the batch.
package extract

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adsync-io/adsync/pkg/gads"
	"github.com/adsync-io/adsync/pkg/logger"
	"github.com/adsync-io/adsync/pkg/records"
)

// Performance Max campaigns have no ad groups; rows carry a placeholder
// ad-group dimension instead.
const (
	pmaxAdGroupID   = int64(0)
	pmaxAdGroupName = "Performance Max"
)

// Window is the inclusive extraction date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// StartDate returns the window start as a calendar date string.
func (w Window) StartDate() string { return w.Start.Format("2006-01-02") }

// EndDate returns the window end as a calendar date string.
func (w Window) EndDate() string { return w.End.Format("2006-01-02") }

// AccountResult carries one account's three record sets.
type AccountResult struct {
	Account  Account
	Campaign *records.RecordSet
	Geo      *records.RecordSet
	Search   *records.RecordSet
}

// Extractor runs the per-account extraction sub-tasks.
type Extractor struct {
	src    RowSource
	logger *zap.Logger
}

// NewExtractor creates an Extractor over the given source.
func NewExtractor(src RowSource) *Extractor {
	return &Extractor{
		src:    src,
		logger: logger.With(zap.String("component", "extractor")),
	}
}

// Account extracts all three record sets for one account. Each
// sub-task is independent: a source error in one is logged and yields
// an empty set while the others still run.
func (e *Extractor) Account(ctx context.Context, account Account, window Window) AccountResult {
	log := e.logger.With(
		zap.String("customer_id", account.ID),
		zap.String("account_name", account.Name))
	log.Info("extracting account")

	result := AccountResult{
		Account:  account,
		Campaign: e.campaignMetrics(ctx, account, window, log),
		Geo:      e.geoMetrics(ctx, account, window, log),
		Search:   e.searchTermMetrics(ctx, account, window, log),
	}

	log.Info("account extracted",
		zap.Int("campaign_rows", result.Campaign.Len()),
		zap.Int("geo_rows", result.Geo.Len()),
		zap.Int("search_rows", result.Search.Len()))

	return result
}

// campaignMetrics builds the standard-campaign set joined with
// conversions, stacked with the Performance Max set, and finalizes the
// combined measures.
func (e *Extractor) campaignMetrics(ctx context.Context, account Account, window Window, log *zap.Logger) *records.RecordSet {
	budgets := e.campaignBudgets(ctx, account, log)

	standard := e.standardCampaigns(ctx, account, window, budgets, log)
	pmax := e.pmaxCampaigns(ctx, account, window, log)

	combined := records.Concat(standard, pmax)
	if combined.Empty() {
		return combined
	}

	combined.FillZero("clicks", "impressions", "cost", "conversions", "daily_budget")
	combined.FillMissing("campaign_status", "UNKNOWN")
	combined.SetConst("customer_id", account.ID)

	return combined
}

// campaignBudgets looks up daily budgets per campaign id. A lookup
// failure degrades to an empty map: joined rows then default to zero
// budget.
func (e *Extractor) campaignBudgets(ctx context.Context, account Account, log *zap.Logger) map[int64]float64 {
	budgets := make(map[int64]float64)

	rows, err := e.src.Search(ctx, account.ID, budgetsQuery)
	if err != nil {
		log.Warn("budget lookup failed, defaulting budgets to zero", zap.Error(err))
		return budgets
	}

	for _, row := range rows {
		if row.Campaign == nil {
			continue
		}
		var micros int64
		if row.CampaignBudget != nil {
			micros = row.CampaignBudget.AmountMicros
		}
		budgets[row.Campaign.ID] = gads.Micros(micros)
	}

	return budgets
}

// standardCampaigns builds the standard-campaign metrics joined with
// conversions. The two queries form one unit: a failure of either
// empties the whole set, so half-joined rows with fabricated zero
// measures never reach the sink.
func (e *Extractor) standardCampaigns(ctx context.Context, account Account, window Window, budgets map[int64]float64, log *zap.Logger) *records.RecordSet {
	rows, err := e.src.Search(ctx, account.ID, standardQuery(window.StartDate(), window.EndDate()))
	if err != nil {
		log.Error("standard campaign query failed, dropping standard campaigns for account", zap.Error(err))
		return records.New()
	}

	metrics := records.New()
	for _, row := range rows {
		metrics.Append(records.Row{
			"account_name":    account.Name,
			"campaign_id":     row.Campaign.ID,
			"campaign_name":   row.Campaign.Name,
			"campaign_status": row.Campaign.Status,
			"daily_budget":    budgets[row.Campaign.ID],
			"ad_group_id":     row.AdGroup.ID,
			"ad_group_name":   row.AdGroup.Name,
			"date":            row.Segments.Date,
			"clicks":          row.Metrics.Clicks,
			"impressions":     row.Metrics.Impressions,
			"cost":            gads.Micros(row.Metrics.CostMicros),
		})
	}

	convRows, err := e.src.Search(ctx, account.ID, standardConversionsQuery(window.StartDate(), window.EndDate()))
	if err != nil {
		log.Error("standard conversions query failed, dropping standard campaigns for account", zap.Error(err))
		return records.New()
	}

	conversions := records.New()
	for _, row := range convRows {
		conversions.Append(records.Row{
			"campaign_id":     row.Campaign.ID,
			"ad_group_id":     row.AdGroup.ID,
			"date":            row.Segments.Date,
			"conversion_name": row.Segments.ConversionActionName,
			"conversions":     row.Metrics.Conversions,
		})
	}

	joined := records.OuterJoin(metrics, conversions, []string{"campaign_id", "ad_group_id", "date"})
	joined.FillMissing("account_name", account.Name)
	return joined
}

// pmaxCampaigns handles the campaign-level query pair for Performance
// Max. Joined rows carry the placeholder ad-group dimension. As with
// the standard pair, either query failing empties the whole set.
func (e *Extractor) pmaxCampaigns(ctx context.Context, account Account, window Window, log *zap.Logger) *records.RecordSet {
	rows, err := e.src.Search(ctx, account.ID, pmaxQuery(window.StartDate(), window.EndDate()))
	if err != nil {
		log.Error("pmax query failed, dropping pmax campaigns for account", zap.Error(err))
		return records.New()
	}

	metrics := records.New()
	for _, row := range rows {
		var budgetMicros int64
		if row.CampaignBudget != nil {
			budgetMicros = row.CampaignBudget.AmountMicros
		}
		metrics.Append(records.Row{
			"account_name":    account.Name,
			"campaign_id":     row.Campaign.ID,
			"campaign_name":   row.Campaign.Name,
			"campaign_status": row.Campaign.Status,
			"daily_budget":    gads.Micros(budgetMicros),
			"ad_group_id":     pmaxAdGroupID,
			"ad_group_name":   pmaxAdGroupName,
			"date":            row.Segments.Date,
			"clicks":          row.Metrics.Clicks,
			"impressions":     row.Metrics.Impressions,
			"cost":            gads.Micros(row.Metrics.CostMicros),
		})
	}

	convRows, err := e.src.Search(ctx, account.ID, pmaxConversionsQuery(window.StartDate(), window.EndDate()))
	if err != nil {
		log.Error("pmax conversions query failed, dropping pmax campaigns for account", zap.Error(err))
		return records.New()
	}

	conversions := records.New()
	for _, row := range convRows {
		conversions.Append(records.Row{
			"campaign_id":     row.Campaign.ID,
			"date":            row.Segments.Date,
			"conversion_name": row.Segments.ConversionActionName,
			"conversions":     row.Metrics.Conversions,
		})
	}

	joined := records.OuterJoin(metrics, conversions, []string{"campaign_id", "date"})
	joined.FillMissing("account_name", account.Name)
	joined.FillMissing("ad_group_id", pmaxAdGroupID)
	joined.FillMissing("ad_group_name", pmaxAdGroupName)
	return joined
}

func (e *Extractor) geoMetrics(ctx context.Context, account Account, window Window, log *zap.Logger) *records.RecordSet {
	set := records.New()
	rows, err := e.src.Search(ctx, account.ID, geoQuery(window.StartDate(), window.EndDate()))
	if err != nil {
		log.Error("geography query failed", zap.Error(err))
		return set
	}
	for _, row := range rows {
		set.Append(records.Row{
			"account_name":         account.Name,
			"customer_id":          account.ID,
			"campaign_id":          row.Campaign.ID,
			"campaign_name":        row.Campaign.Name,
			"date":                 row.Segments.Date,
			"country_criterion_id": row.GeographicView.CountryCriterionID,
			"impressions":          row.Metrics.Impressions,
			"clicks":               row.Metrics.Clicks,
			"cost":                 gads.Micros(row.Metrics.CostMicros),
			"conversions":          row.Metrics.Conversions,
		})
	}
	return set
}

func (e *Extractor) searchTermMetrics(ctx context.Context, account Account, window Window, log *zap.Logger) *records.RecordSet {
	set := records.New()
	rows, err := e.src.Search(ctx, account.ID, searchTermQuery(window.StartDate(), window.EndDate()))
	if err != nil {
		log.Error("search term query failed", zap.Error(err))
		return set
	}
	for _, row := range rows {
		set.Append(records.Row{
			"account_name":  account.Name,
			"customer_id":   account.ID,
			"date":          row.Segments.Date,
			"campaign_id":   row.Campaign.ID,
			"campaign_name": row.Campaign.Name,
			"ad_group_id":   row.AdGroup.ID,
			"ad_group_name": row.AdGroup.Name,
			"search_term":   row.SearchTermView.SearchTerm,
			"device":        row.Segments.Device,
			"impressions":   row.Metrics.Impressions,
			"clicks":        row.Metrics.Clicks,
			"cost":          gads.Micros(row.Metrics.CostMicros),
			"conversions":   row.Metrics.Conversions,
		})
	}
	return set
}
