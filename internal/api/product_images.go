package api

import (
	"context"
	"io"
)

// All lists the images of a product.
func (s ProductImagesService) All(ctx context.Context, productID string, params map[string]any) (any, error) {
	return s.unwrap(s.FetchAll(ctx, s.session, resourcePath("products", productID, "images"), params))
}

// Find retrieves a single product image.
func (s ProductImagesService) Find(ctx context.Context, productID, imageID string) (any, error) {
	return s.call(ctx, s.session, Request{Method: MethodGet, Path: resourcePath("products", productID, "images", imageID)})
}

// Upload adds an image to a product. contentType may be empty to sniff it.
func (s ProductImagesService) Upload(ctx context.Context, productID, fileName string, content io.Reader, contentType string) (any, error) {
	res, err := s.Client.Upload(ctx, s.session, resourcePath("products", productID, "images"), content, contentType,
		map[string]any{"file_name": fileName})
	return s.unwrap(res, err)
}

// Delete removes an image from a product and returns true on success.
func (s ProductImagesService) Delete(ctx context.Context, productID, imageID string) (any, error) {
	return s.call(ctx, s.session, Request{
		Method: MethodDelete,
		Path:   resourcePath("products", productID, "images", imageID),
	}, WithRespondWithTrue(true))
}
