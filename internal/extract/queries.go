package extract

import "fmt"

// GAQL query shapes. Standard campaigns are queried at the ad_group
// level; Performance Max campaigns have no ad groups and use a separate
// campaign-level shape.

const discoveryQuery = `
	SELECT
		customer_client.client_customer,
		customer_client.descriptive_name
	FROM customer_client
	WHERE
		customer_client.status = 'ENABLED'
		AND customer_client.manager = FALSE`

const budgetsQuery = `
	SELECT campaign.id, campaign_budget.amount_micros
	FROM campaign
	WHERE campaign.status != 'REMOVED'`

func standardQuery(start, end string) string {
	return fmt.Sprintf(`
	SELECT
		campaign.id,
		campaign.name,
		campaign.status,
		ad_group.id,
		ad_group.name,
		segments.date,
		metrics.clicks,
		metrics.impressions,
		metrics.cost_micros
	FROM ad_group
	WHERE segments.date BETWEEN '%s' AND '%s'
	AND campaign.advertising_channel_type != 'PERFORMANCE_MAX'`, start, end)
}

func standardConversionsQuery(start, end string) string {
	return fmt.Sprintf(`
	SELECT
		campaign.id,
		ad_group.id,
		segments.date,
		segments.conversion_action_name,
		metrics.conversions
	FROM ad_group
	WHERE segments.date BETWEEN '%s' AND '%s'
	AND campaign.advertising_channel_type != 'PERFORMANCE_MAX'`, start, end)
}

func pmaxQuery(start, end string) string {
	return fmt.Sprintf(`
	SELECT
		campaign.id,
		campaign.name,
		campaign.status,
		campaign_budget.amount_micros,
		segments.date,
		metrics.clicks,
		metrics.impressions,
		metrics.cost_micros
	FROM campaign
	WHERE segments.date BETWEEN '%s' AND '%s'
	AND campaign.advertising_channel_type = 'PERFORMANCE_MAX'`, start, end)
}

func pmaxConversionsQuery(start, end string) string {
	return fmt.Sprintf(`
	SELECT
		campaign.id,
		segments.date,
		segments.conversion_action_name,
		metrics.conversions
	FROM campaign
	WHERE segments.date BETWEEN '%s' AND '%s'
	AND campaign.advertising_channel_type = 'PERFORMANCE_MAX'`, start, end)
}

func geoQuery(start, end string) string {
	return fmt.Sprintf(`
	SELECT
		campaign.id,
		campaign.name,
		segments.date,
		geographic_view.country_criterion_id,
		metrics.impressions,
		metrics.clicks,
		metrics.cost_micros,
		metrics.conversions
	FROM geographic_view
	WHERE segments.date BETWEEN '%s' AND '%s'`, start, end)
}

func searchTermQuery(start, end string) string {
	return fmt.Sprintf(`
	SELECT
		segments.date,
		campaign.id,
		campaign.name,
		ad_group.id,
		ad_group.name,
		search_term_view.search_term,
		segments.device,
		metrics.impressions,
		metrics.clicks,
		metrics.cost_micros,
		metrics.conversions
	FROM search_term_view
	WHERE segments.date BETWEEN '%s' AND '%s'`, start, end)
}
