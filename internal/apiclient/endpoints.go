package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/services"
)

func (c *Client) Register(ctx context.Context, req *services.RegisterRequest) (*services.AuthResponse, error) {
	var out services.AuthResponse
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*services.AuthResponse, error) {
	var out services.AuthResponse
	req := services.LoginRequest{Email: email, Password: password}
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
	return err
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if _, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductQuery holds the optional filters of the product listing.
type ProductQuery struct {
	Search   string
	Category string
	FarmerID string
	PriceMin string
	PriceMax string
	InStock  bool
	Page     int
	Limit    int
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("search", q.Search)
	set("category", q.Category)
	set("farmer_id", q.FarmerID)
	set("price_min", q.PriceMin)
	set("price_max", q.PriceMax)
	if q.InStock {
		v.Set("in_stock", "true")
	}
	pageValues(v, q.Page, q.Limit)
	return v
}

func pageValues(v url.Values, page, limit int) {
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*Page[models.Product], error) {
	return list[models.Product](ctx, c, "/api/products", q.values())
}

func (c *Client) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var out models.Product
	if _, err := c.do(ctx, http.MethodGet, "/api/products/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProduct(ctx context.Context, req *services.CreateProductRequest) (*models.Product, error) {
	var out models.Product
	if _, err := c.do(ctx, http.MethodPost, "/api/products", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordView returns the product's updated view count.
func (c *Client) RecordView(ctx context.Context, id uuid.UUID) (int64, error) {
	var out struct {
		Views int64 `json:"views"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/products/"+id.String()+"/view", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Views, nil
}

func (c *Client) AddReview(ctx context.Context, productID uuid.UUID, req *services.ReviewRequest) (*models.Review, error) {
	var out models.Review
	if _, err := c.do(ctx, http.MethodPost, "/api/products/"+productID.String()+"/reviews", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context, status string, page, limit int) (*Page[models.Order], error) {
	v := url.Values{}
	if status != "" {
		v.Set("status", status)
	}
	pageValues(v, page, limit)
	return list[models.Order](ctx, c, "/api/orders", v)
}

func (c *Client) CreateOrder(ctx context.Context, productID uuid.UUID, quantity int) (*models.Order, error) {
	var out models.Order
	req := services.CreateOrderRequest{ProductID: productID, Quantity: quantity}
	if _, err := c.do(ctx, http.MethodPost, "/api/orders", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	var out models.Order
	req := services.UpdateOrderStatusRequest{Status: status}
	if _, err := c.do(ctx, http.MethodPut, "/api/orders/"+orderID.String()+"/status", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/orders/"+orderID.String(), nil, nil, nil)
	return err
}

func (c *Client) ListNotifications(ctx context.Context, unreadOnly bool, page, limit int) (*Page[models.Notification], error) {
	v := url.Values{}
	if unreadOnly {
		v.Set("unread", "true")
	}
	pageValues(v, page, limit)
	return list[models.Notification](ctx, c, "/api/notifications", v)
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var out models.Notification
	if _, err := c.do(ctx, http.MethodPut, "/api/notifications/"+id.String()+"/read", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	if _, err := c.do(ctx, http.MethodPut, "/api/notifications/read-all", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}
