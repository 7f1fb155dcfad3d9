package query

import (
	"context"
	"fmt"

	cloudbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/reventa-uy/reventa-backend/internal/analytics/types"
	"github.com/reventa-uy/reventa-backend/pkg/bigquery"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
)

const (
	timeSeriesConfirmedOrdersSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  COUNT(DISTINCT order_id) AS value
FROM %s
WHERE %s
  AND event_type = 'order_confirmed'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	timeSeriesGrossSalesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  SUM(COALESCE(price_cents, 0)) AS value
FROM %s
WHERE %s
  AND event_type = 'ticket_sold'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	timeSeriesTicketsSoldSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  COUNT(*) AS value
FROM %s
WHERE %s
  AND event_type = 'ticket_sold'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	timeSeriesExpiredOrdersSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  COUNT(DISTINCT order_id) AS value
FROM %s
WHERE %s
  AND event_type = 'order_expired'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	timeSeriesFailedPaymentsSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  COUNT(*) AS value
FROM %s
WHERE %s
  AND event_type = 'payment_failed'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	topEventsSQL = `
SELECT ticket_event_id AS label, SUM(COALESCE(price_cents, 0)) AS value
FROM %s
WHERE %s
  AND ticket_event_id IS NOT NULL
  AND event_type = 'ticket_sold'
  AND occurred_at BETWEEN @start AND @end
GROUP BY ticket_event_id
ORDER BY value DESC
LIMIT 5
`

	topSellersSQL = `
SELECT seller_user_id AS label, SUM(COALESCE(price_cents, 0)) AS value
FROM %s
WHERE %s
  AND seller_user_id IS NOT NULL
  AND event_type = 'ticket_sold'
  AND occurred_at BETWEEN @start AND @end
GROUP BY seller_user_id
ORDER BY value DESC
LIMIT 5
`

	aovSQL = `
SELECT SAFE_DIVIDE(SUM(COALESCE(price_cents, 0)), NULLIF(COUNT(DISTINCT order_id), 0)) AS value
FROM %s
WHERE %s
  AND event_type = 'ticket_sold'
  AND occurred_at BETWEEN @start AND @end
`
)

// MarketplaceService provides dashboard data from BigQuery marketplace_events.
type MarketplaceService interface {
	Query(ctx context.Context, req types.MarketplaceQueryRequest) (*types.MarketplaceQueryResponse, error)
}

type marketplaceService struct {
	client   *bigquery.Client
	tableRef string
}

// NewMarketplaceService builds a service backed by BigQuery.
func NewMarketplaceService(client *bigquery.Client, project, dataset, table string) (MarketplaceService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if project == "" || dataset == "" || table == "" {
		return nil, fmt.Errorf("project, dataset, and table are required")
	}
	return &marketplaceService{
		client:   client,
		tableRef: fmt.Sprintf("`%s.%s.%s`", project, dataset, table),
	}, nil
}

func (s *marketplaceService) Query(ctx context.Context, req types.MarketplaceQueryRequest) (*types.MarketplaceQueryResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	scopeClause := buildScopeClause(req.SellerUserID)
	params := s.baseParams(req)

	confirmed, err := s.querySeries(ctx, fmt.Sprintf(timeSeriesConfirmedOrdersSQL, s.tableRef, scopeClause), params)
	if err != nil {
		return nil, err
	}
	grossSales, err := s.querySeries(ctx, fmt.Sprintf(timeSeriesGrossSalesSQL, s.tableRef, scopeClause), params)
	if err != nil {
		return nil, err
	}
	ticketsSold, err := s.querySeries(ctx, fmt.Sprintf(timeSeriesTicketsSoldSQL, s.tableRef, scopeClause), params)
	if err != nil {
		return nil, err
	}
	expired, err := s.querySeries(ctx, fmt.Sprintf(timeSeriesExpiredOrdersSQL, s.tableRef, scopeClause), params)
	if err != nil {
		return nil, err
	}
	failedPayments, err := s.querySeries(ctx, fmt.Sprintf(timeSeriesFailedPaymentsSQL, s.tableRef, scopeClause), params)
	if err != nil {
		return nil, err
	}

	topEvents, err := s.queryTopLabels(ctx, fmt.Sprintf(topEventsSQL, s.tableRef, scopeClause), params)
	if err != nil {
		return nil, err
	}
	topSellers, err := s.queryTopLabels(ctx, fmt.Sprintf(topSellersSQL, s.tableRef, scopeClause), params)
	if err != nil {
		return nil, err
	}

	aov, err := s.queryAOV(ctx, fmt.Sprintf(aovSQL, s.tableRef, scopeClause), params)
	if err != nil {
		return nil, err
	}

	return &types.MarketplaceQueryResponse{
		ConfirmedOrders:   confirmed,
		GrossSales:        grossSales,
		TicketsSold:       ticketsSold,
		ExpiredOrders:     expired,
		FailedPayments:    failedPayments,
		TopEvents:         topEvents,
		TopSellers:        topSellers,
		AverageOrderValue: aov,
	}, nil
}

func validateRequest(req types.MarketplaceQueryRequest) error {
	if req.Start.IsZero() || req.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if req.End.Before(req.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}

func buildScopeClause(sellerUserID string) string {
	if sellerUserID == "" {
		return "TRUE"
	}
	return "seller_user_id = @sellerID"
}

func (s *marketplaceService) baseParams(req types.MarketplaceQueryRequest) []cloudbigquery.QueryParameter {
	params := []cloudbigquery.QueryParameter{
		{Name: "start", Value: req.Start},
		{Name: "end", Value: req.End},
	}
	if req.SellerUserID != "" {
		params = append(params, cloudbigquery.QueryParameter{Name: "sellerID", Value: req.SellerUserID})
	}
	return params
}

func (s *marketplaceService) querySeries(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.TimeSeriesPoint, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}

	var points []types.TimeSeriesPoint
	for {
		var row struct {
			Day   string `bigquery:"day"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading series row: %w", err)
		}
		points = append(points, types.TimeSeriesPoint{Date: row.Day, Value: row.Value})
	}
	return points, nil
}

func (s *marketplaceService) queryTopLabels(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.LabelValue, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query top labels: %w", err)
	}

	var result []types.LabelValue
	for {
		var row struct {
			Label string `bigquery:"label"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading top label row: %w", err)
		}
		result = append(result, types.LabelValue{Label: row.Label, Value: row.Value})
	}
	return result, nil
}

func (s *marketplaceService) queryAOV(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (float64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query aov: %w", err)
	}
	var row struct {
		Value cloudbigquery.NullFloat64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading aov row: %w", err)
	}
	if !row.Value.Valid {
		return 0, nil
	}
	return row.Value.Float64, nil
}
