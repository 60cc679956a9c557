package api

import "context"

// All lists products. Pass "paginated": false in params to fetch every page.
func (s ProductsService) All(ctx context.Context, params map[string]any) (any, error) {
	return s.unwrap(s.FetchAll(ctx, s.session, "/products", params))
}

// Find retrieves a product by ID.
func (s ProductsService) Find(ctx context.Context, id string) (any, error) {
	return s.call(ctx, s.session, Request{Method: MethodGet, Path: resourcePath("products", id)})
}

// Create creates a product from a snake_case body.
func (s ProductsService) Create(ctx context.Context, body map[string]any) (any, error) {
	return s.call(ctx, s.session, Request{Method: MethodPost, Path: "/products", Body: body})
}

// Update applies a partial update.
func (s ProductsService) Update(ctx context.Context, id string, body map[string]any) (any, error) {
	return s.call(ctx, s.session, Request{
		Method:      MethodPatch,
		Path:        resourcePath("products", id),
		Body:        body,
		ContentType: "application/merge-patch+json",
	})
}

// Delete deletes a product and returns true on success.
func (s ProductsService) Delete(ctx context.Context, id string) (any, error) {
	return s.call(ctx, s.session, Request{Method: MethodDelete, Path: resourcePath("products", id)}, WithRespondWithTrue(true))
}

// SearchBySKU finds the product with the given SKU.
func (s ProductsService) SearchBySKU(ctx context.Context, sku string) (any, error) {
	return s.call(ctx, s.session, Request{
		Method: MethodGet,
		Path:   "/products/search/find-by-sku",
		Query:  map[string]any{"sku": sku},
	})
}
