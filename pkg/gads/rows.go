package gads

import "strings"

// SearchRow is one result row of a googleAds:search response. Only the
// attribute groups named in the GAQL SELECT clause are populated; the
// rest stay nil.
type SearchRow struct {
	Campaign       *Campaign       `json:"campaign,omitempty"`
	CampaignBudget *CampaignBudget `json:"campaignBudget,omitempty"`
	AdGroup        *AdGroup        `json:"adGroup,omitempty"`
	Metrics        *Metrics        `json:"metrics,omitempty"`
	Segments       *Segments       `json:"segments,omitempty"`
	GeographicView *GeographicView `json:"geographicView,omitempty"`
	SearchTermView *SearchTermView `json:"searchTermView,omitempty"`
	CustomerClient *CustomerClient `json:"customerClient,omitempty"`
}

// Campaign attributes. Int64 identifiers arrive as JSON strings.
type Campaign struct {
	ResourceName           string `json:"resourceName,omitempty"`
	ID                     int64  `json:"id,string,omitempty"`
	Name                   string `json:"name,omitempty"`
	Status                 string `json:"status,omitempty"`
	AdvertisingChannelType string `json:"advertisingChannelType,omitempty"`
}

// CampaignBudget attributes.
type CampaignBudget struct {
	AmountMicros int64 `json:"amountMicros,string,omitempty"`
}

// AdGroup attributes.
type AdGroup struct {
	ID   int64  `json:"id,string,omitempty"`
	Name string `json:"name,omitempty"`
}

// Metrics carries the numeric measures. Counts and micro-currency cost
// are string-encoded int64 on the wire; conversions are a double.
type Metrics struct {
	Clicks      int64   `json:"clicks,string,omitempty"`
	Impressions int64   `json:"impressions,string,omitempty"`
	CostMicros  int64   `json:"costMicros,string,omitempty"`
	Conversions float64 `json:"conversions,omitempty"`
}

// Segments carries the query segmentation values.
type Segments struct {
	Date                 string `json:"date,omitempty"`
	Device               string `json:"device,omitempty"`
	ConversionActionName string `json:"conversionActionName,omitempty"`
}

// GeographicView attributes.
type GeographicView struct {
	CountryCriterionID int64 `json:"countryCriterionId,string,omitempty"`
}

// SearchTermView attributes.
type SearchTermView struct {
	SearchTerm string `json:"searchTerm,omitempty"`
}

// CustomerClient attributes, returned by customer_client discovery
// queries on a manager account.
type CustomerClient struct {
	ClientCustomer  string `json:"clientCustomer,omitempty"`
	DescriptiveName string `json:"descriptiveName,omitempty"`
	Status          string `json:"status,omitempty"`
	Manager         bool   `json:"manager,omitempty"`
}

// CustomerID extracts the bare customer id from the client customer
// resource name ("customers/1234567890").
func (c *CustomerClient) CustomerID() string {
	if c == nil {
		return ""
	}
	if i := strings.LastIndexByte(c.ClientCustomer, '/'); i >= 0 {
		return c.ClientCustomer[i+1:]
	}
	return c.ClientCustomer
}

// Micros converts a micro-currency amount to a currency amount.
func Micros(m int64) float64 {
	return float64(m) / 1_000_000
}
