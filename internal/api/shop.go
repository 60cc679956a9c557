package api

import "context"

// Current retrieves the shop the session is bound to.
func (s ShopService) Current(ctx context.Context) (any, error) {
	return s.call(ctx, s.session, Request{Method: MethodGet, Path: "/shop"})
}

// Address retrieves the shop's legal address.
func (s ShopService) Address(ctx context.Context) (any, error) {
	return s.call(ctx, s.session, Request{Method: MethodGet, Path: "/shop/address"})
}

// Rename changes the shop name.
func (s ShopService) Rename(ctx context.Context, name string) (any, error) {
	return s.call(ctx, s.session, Request{
		Method:      MethodPatch,
		Path:        "/shop",
		Body:        map[string]any{"name": name},
		ContentType: "application/merge-patch+json",
	})
}
