package api

import "context"

func (s WebhookSubscriptionsService) All(ctx context.Context, params map[string]any) (any, error) {
	return s.unwrap(s.FetchAll(ctx, s.session, "/webhook-subscriptions", params))
}

func (s WebhookSubscriptionsService) Find(ctx context.Context, id string) (any, error) {
	return s.call(ctx, s.session, Request{Method: MethodGet, Path: resourcePath("webhook-subscriptions", id)})
}

// Create subscribes callbackURL to eventTypes.
func (s WebhookSubscriptionsService) Create(ctx context.Context, callbackURL string, eventTypes []string) (any, error) {
	events := make([]any, len(eventTypes))
	for i, e := range eventTypes {
		events[i] = e
	}
	return s.call(ctx, s.session, Request{
		Method: MethodPost,
		Path:   "/webhook-subscriptions",
		Body: map[string]any{
			"callback_url": callbackURL,
			"event_types":  events,
		},
	})
}

func (s WebhookSubscriptionsService) Delete(ctx context.Context, id string) (any, error) {
	return s.call(ctx, s.session, Request{Method: MethodDelete, Path: resourcePath("webhook-subscriptions", id)}, WithRespondWithTrue(true))
}

// Activate enables delivery. The endpoint answers with an empty body, so
// success is reported as true.
func (s WebhookSubscriptionsService) Activate(ctx context.Context, id string) (any, error) {
	return s.call(ctx, s.session, Request{
		Method: MethodPost,
		Path:   resourcePath("webhook-subscriptions", id, "activate"),
	}, WithRespondWithTrue(true))
}

// Deactivate pauses delivery and returns true on success.
func (s WebhookSubscriptionsService) Deactivate(ctx context.Context, id string) (any, error) {
	return s.call(ctx, s.session, Request{
		Method: MethodPost,
		Path:   resourcePath("webhook-subscriptions", id, "deactivate"),
	}, WithRespondWithTrue(true))
}
