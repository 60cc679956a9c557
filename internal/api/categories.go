package api

import "context"

func (s CategoriesService) All(ctx context.Context, params map[string]any) (any, error) {
	return s.unwrap(s.FetchAll(ctx, s.session, "/categories", params))
}

func (s CategoriesService) Find(ctx context.Context, id string) (any, error) {
	return s.call(ctx, s.session, Request{Method: MethodGet, Path: resourcePath("categories", id)})
}

func (s CategoriesService) Create(ctx context.Context, body map[string]any) (any, error) {
	return s.call(ctx, s.session, Request{Method: MethodPost, Path: "/categories", Body: body})
}

// Replace overwrites a category with body.
func (s CategoriesService) Replace(ctx context.Context, id string, body map[string]any) (any, error) {
	return s.call(ctx, s.session, Request{Method: MethodPut, Path: resourcePath("categories", id), Body: body})
}

func (s CategoriesService) Delete(ctx context.Context, id string) (any, error) {
	return s.call(ctx, s.session, Request{Method: MethodDelete, Path: resourcePath("categories", id)}, WithRespondWithTrue(true))
}
