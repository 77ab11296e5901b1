package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/models"
)

// StoreAPI is the typed surface of the store REST API. Protected calls take
// the caller's bearer token and forward it unchanged.
type StoreAPI struct {
	gw *GatewayClient
}

func NewStoreAPI(gw *GatewayClient) *StoreAPI {
	return &StoreAPI{gw: gw}
}

func bearer(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// call sends body as JSON (when non-nil) and decodes the envelope's data into out.
func (s *StoreAPI) call(ctx context.Context, method, path, token string, query url.Values, body, out any) (*Envelope, error) {
	headers := bearer(token)
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.ErrBadRequest.Wrap(err)
		}
		reader = BodyFromBytes(b)
		headers.Set("Content-Type", "application/json")
	}

	resp, err := s.gw.Do(ctx, method, path, query, headers, reader)
	if err != nil {
		return nil, apperrors.Fetch(0, "", fmt.Errorf("%s %s: %w", method, path, err))
	}
	return DecodeEnvelope(resp, out)
}

func (s *StoreAPI) callMultipart(ctx context.Context, method, path, token string, fields map[string]string, file *FilePart, out any) error {
	buf, contentType, err := buildMultipart(fields, file)
	if err != nil {
		return apperrors.ErrBadRequest.Wrap(err)
	}
	headers := bearer(token)
	headers.Set("Content-Type", contentType)

	resp, err := s.gw.Do(ctx, method, path, nil, headers, buf)
	if err != nil {
		return apperrors.Fetch(0, "", fmt.Errorf("%s %s: %w", method, path, err))
	}
	_, err = DecodeEnvelope(resp, out)
	return err
}

func pagination(env *Envelope) models.Pagination {
	if env == nil || env.Pagination == nil {
		return models.Pagination{}
	}
	return *env.Pagination
}

func idPath(prefix string, id models.ID) string {
	return prefix + "/" + url.PathEscape(id.String())
}

// Auth

func (s *StoreAPI) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	var data struct {
		Token string `json:"token"`
	}
	if _, err := s.call(ctx, http.MethodPost, "/api/auth/login", "", nil, req, &data); err != nil {
		return "", err
	}
	if data.Token == "" {
		return "", apperrors.Fetch(http.StatusOK, "login response carried no token", nil)
	}
	return data.Token, nil
}

func (s *StoreAPI) Register(ctx context.Context, req models.RegisterRequest) error {
	_, err := s.call(ctx, http.MethodPost, "/api/auth/register", "", nil, req, nil)
	return err
}

// Catalog

func (s *StoreAPI) ListProducts(ctx context.Context, params url.Values) ([]models.Product, models.Pagination, error) {
	var products []models.Product
	env, err := s.call(ctx, http.MethodGet, "/api/products", "", params, nil, &products)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return products, pagination(env), nil
}

func (s *StoreAPI) GetProduct(ctx context.Context, id models.ID) (*models.Product, error) {
	var p models.Product
	if _, err := s.call(ctx, http.MethodGet, idPath("/api/products", id), "", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Users

func (s *StoreAPI) Me(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	if _, err := s.call(ctx, http.MethodGet, "/api/users/me", token, nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Cart

func (s *StoreAPI) ListCart(ctx context.Context, token string) ([]models.CartItem, error) {
	var items []models.CartItem
	if _, err := s.call(ctx, http.MethodGet, "/api/carts", token, nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *StoreAPI) AddToCart(ctx context.Context, token string, req models.AddToCartRequest) error {
	_, err := s.call(ctx, http.MethodPost, "/api/carts", token, nil, req, nil)
	return err
}

func (s *StoreAPI) UpdateCartQuantity(ctx context.Context, token string, cartID models.ID, quantity int) error {
	body := map[string]int{"quantity": quantity}
	_, err := s.call(ctx, http.MethodPut, idPath("/api/carts", cartID), token, nil, body, nil)
	return err
}

func (s *StoreAPI) RemoveCartItem(ctx context.Context, token string, cartID models.ID) error {
	_, err := s.call(ctx, http.MethodDelete, idPath("/api/carts", cartID), token, nil, nil, nil)
	return err
}

// Orders

func (s *StoreAPI) CreateOrder(ctx context.Context, token string, req models.CreateOrderRequest) (*models.CreatedOrder, error) {
	var created models.CreatedOrder
	if _, err := s.call(ctx, http.MethodPost, "/api/orders", token, nil, req, &created); err != nil {
		return nil, err
	}
	if created.Identifier() == "" || created.SnapToken == "" {
		return nil, apperrors.Fetch(http.StatusOK, "order response carried no order id or snap token", nil)
	}
	return &created, nil
}

func (s *StoreAPI) MyOrders(ctx context.Context, token string, params url.Values) ([]models.Order, models.Pagination, error) {
	var orders []models.Order
	env, err := s.call(ctx, http.MethodGet, "/api/orders/me", token, params, nil, &orders)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return orders, pagination(env), nil
}

func (s *StoreAPI) GetOrder(ctx context.Context, token string, id models.ID) (*models.Order, error) {
	var o models.Order
	if _, err := s.call(ctx, http.MethodGet, idPath("/api/orders", id), token, nil, nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *StoreAPI) UpdateOrderStatus(ctx context.Context, token string, id models.ID, status models.OrderStatus) error {
	body := map[string]models.OrderStatus{"status": status}
	_, err := s.call(ctx, http.MethodPut, idPath("/api/orders", id)+"/status", token, nil, body, nil)
	return err
}

// Admin

func (s *StoreAPI) AdminOrders(ctx context.Context, token string, params url.Values) ([]models.Order, models.Pagination, error) {
	var orders []models.Order
	env, err := s.call(ctx, http.MethodGet, "/api/admin/orders", token, params, nil, &orders)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return orders, pagination(env), nil
}

func (s *StoreAPI) AdminUsers(ctx context.Context, token string, params url.Values) ([]models.User, models.Pagination, error) {
	var users []models.User
	env, err := s.call(ctx, http.MethodGet, "/api/admin/users", token, params, nil, &users)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return users, pagination(env), nil
}

func (s *StoreAPI) AdminMe(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	if _, err := s.call(ctx, http.MethodGet, "/api/admin/users/me", token, nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *StoreAPI) UpdateAdminProfile(ctx context.Context, token string, form models.ProfileForm, image *FilePart) (*models.User, error) {
	fields := map[string]string{
		"name":    form.Name,
		"email":   form.Email,
		"phone":   form.Phone,
		"gender":  form.Gender,
		"address": form.Address,
	}
	var u models.User
	if err := s.callMultipart(ctx, http.MethodPut, "/api/admin/users/me", token, fields, image, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func productFields(form models.ProductForm) map[string]string {
	return map[string]string{
		"name":        form.Name,
		"price":       strconv.FormatInt(form.Price, 10),
		"stock":       strconv.Itoa(form.Stock),
		"category":    form.Category,
		"packaging":   form.Packaging,
		"weight":      form.Weight,
		"description": form.Description,
	}
}

func (s *StoreAPI) CreateProduct(ctx context.Context, token string, form models.ProductForm, image *FilePart) (*models.Product, error) {
	var p models.Product
	if err := s.callMultipart(ctx, http.MethodPost, "/api/products", token, productFields(form), image, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *StoreAPI) UpdateProduct(ctx context.Context, token string, id models.ID, form models.ProductForm, image *FilePart) (*models.Product, error) {
	var p models.Product
	if err := s.callMultipart(ctx, http.MethodPut, idPath("/api/products", id), token, productFields(form), image, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *StoreAPI) DeleteProduct(ctx context.Context, token string, id models.ID) error {
	_, err := s.call(ctx, http.MethodDelete, idPath("/api/products", id), token, nil, nil, nil)
	return err
}
