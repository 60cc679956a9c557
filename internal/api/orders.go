package api

import "context"

// All lists orders. Pass "paginated": false in params to fetch every page.
func (s OrdersService) All(ctx context.Context, params map[string]any) (any, error) {
	return s.unwrap(s.FetchAll(ctx, s.session, "/orders", params))
}

// Find retrieves an order by ID.
func (s OrdersService) Find(ctx context.Context, id string) (any, error) {
	return s.call(ctx, s.session, Request{Method: MethodGet, Path: resourcePath("orders", id)})
}

// SearchByOrderNumber finds the order with the given order number.
func (s OrdersService) SearchByOrderNumber(ctx context.Context, orderNumber string) (any, error) {
	return s.call(ctx, s.session, Request{
		Method: MethodGet,
		Path:   "/orders/search/find-by-order-number",
		Query:  map[string]any{"order_number": orderNumber},
	})
}

// Events lists the events recorded for an order.
func (s OrdersService) Events(ctx context.Context, id string, params map[string]any) (any, error) {
	return s.unwrap(s.FetchAll(ctx, s.session, resourcePath("orders", id, "events"), params))
}

// Cancel cancels an order with an optional comment.
func (s OrdersService) Cancel(ctx context.Context, id, comment string) (any, error) {
	body := map[string]any{}
	if comment != "" {
		body["comment"] = comment
	}
	return s.call(ctx, s.session, Request{
		Method: MethodPost,
		Path:   resourcePath("orders", id, "processes", "cancelations"),
		Body:   body,
	})
}
