package types

import "time"

// MarketplaceQueryRequest carries the input parameters for marketplace
// analytics queries. SellerUserID is optional; when empty the report covers
// the whole marketplace.
type MarketplaceQueryRequest struct {
	SellerUserID string
	Start        time.Time
	End          time.Time
}

// TimeSeriesPoint describes a single date/value pair returned by the query service.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// LabelValue represents a top-N entry such as a show or seller.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// MarketplaceQueryResponse wraps the marketplace KPIs for the dashboard.
type MarketplaceQueryResponse struct {
	ConfirmedOrders   []TimeSeriesPoint `json:"confirmed_orders"`
	GrossSales        []TimeSeriesPoint `json:"gross_sales"`
	TicketsSold       []TimeSeriesPoint `json:"tickets_sold"`
	ExpiredOrders     []TimeSeriesPoint `json:"expired_orders"`
	FailedPayments    []TimeSeriesPoint `json:"failed_payments"`
	TopEvents         []LabelValue      `json:"top_events"`
	TopSellers        []LabelValue      `json:"top_sellers"`
	AverageOrderValue float64           `json:"average_order_value"`
}
