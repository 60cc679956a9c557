package api

import (
	"context"
	"net/url"
	"strings"
)

// Service accessors group resource calls. Each service embeds *Client and
// carries the session its calls run under.

type ProductsService struct {
	*Client
	session *Session
}

type ProductImagesService struct {
	*Client
	session *Session
}

type OrdersService struct {
	*Client
	session *Session
}

type CategoriesService struct {
	*Client
	session *Session
}

type ShopService struct {
	*Client
	session *Session
}

type WebhookSubscriptionsService struct {
	*Client
	session *Session
}

func (c *Client) Products(s *Session) ProductsService {
	return ProductsService{c, s}
}

func (c *Client) ProductImages(s *Session) ProductImagesService {
	return ProductImagesService{c, s}
}

func (c *Client) Orders(s *Session) OrdersService {
	return OrdersService{c, s}
}

func (c *Client) Categories(s *Session) CategoriesService {
	return CategoriesService{c, s}
}

func (c *Client) Shop(s *Session) ShopService {
	return ShopService{c, s}
}

func (c *Client) WebhookSubscriptions(s *Session) WebhookSubscriptionsService {
	return WebhookSubscriptionsService{c, s}
}

// call runs req through Do and applies raise_error_requests.
func (c *Client) call(ctx context.Context, s *Session, req Request, opts ...Option) (any, error) {
	res, err := c.Do(ctx, s, req, opts...)
	return c.unwrap(res, err)
}

// unwrap returns the result value. A failure is returned as the error, or
// as a plain value when raise_error_requests is off.
func (c *Client) unwrap(res Result, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if res.Failure != nil {
		if c.Config.RaiseErrorRequests {
			return nil, res.Failure
		}
		return res.Failure.AsMap(), nil
	}
	return res.Value, nil
}

// resourcePath joins path segments, escaping each one.
func resourcePath(segments ...string) string {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(strings.Trim(seg, "/")))
	}
	return b.String()
}
