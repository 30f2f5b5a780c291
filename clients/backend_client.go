package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cristopher43/gamer-zeta-frontend/apperrors"
	"github.com/cristopher43/gamer-zeta-frontend/models"

	"github.com/sony/gobreaker/v2"
)

// errServerFailure marks a 5xx answer so the breaker counts it without
// discarding the response.
var errServerFailure = errors.New("backend answered with a server error")

// errCallerGone marks a request abandoned by its own context.
var errCallerGone = errors.New("request abandoned by caller")

// BackendClient talks to the POS backend REST API.
type BackendClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func NewBackendClient(baseURL string, timeout time.Duration, breaker BreakerSettings) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: newBreaker(breaker),
	}
}

type call struct {
	method   string
	path     string
	query    url.Values
	token    string
	body     any
	fallback string
	// onUnauthorized replaces the default token-expired mapping of a 401.
	onUnauthorized *apperrors.Error
}

// do performs a call and returns the raw body of a 2xx answer.
func (c *BackendClient) do(ctx context.Context, in call) ([]byte, error) {
	u := c.baseURL + in.path
	if len(in.query) > 0 {
		u += "?" + in.query.Encode()
	}

	var payload []byte
	if in.body != nil {
		b, err := json.Marshal(in.body)
		if err != nil {
			return nil, apperrors.ErrInternalServer.Wrap(err)
		}
		payload = b
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, in.method, u, BodyFromBytes(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if in.token != "" {
			req.Header.Set("Authorization", "Bearer "+in.token)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %w", errCallerGone, ctxErr)
			}
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerFailure
		}
		return resp, nil
	})
	if err != nil && !errors.Is(err, errServerFailure) {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, apperrors.ErrUnreachable.Wrap(fmt.Errorf("%s %s: %w", in.method, in.path, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.ErrUnreachable.Wrap(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, mapFailure(resp.StatusCode, body, in)
	}
	return body, nil
}

func (c *BackendClient) decode(ctx context.Context, in call, out any) error {
	body, err := c.do(ctx, in)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.ErrUpstream.WithMessage(in.fallback).Wrap(err)
	}
	return nil
}

func mapFailure(status int, body []byte, in call) error {
	msg := ExtractMessage(body)
	cause := fmt.Errorf("%s %s: status=%d", in.method, in.path, status)

	if status == http.StatusUnauthorized {
		if in.onUnauthorized != nil {
			return in.onUnauthorized.Wrap(cause)
		}
		return apperrors.ErrTokenExpired.Wrap(cause)
	}

	if msg == "" {
		msg = in.fallback
	}
	var kind *apperrors.Error
	switch status {
	case http.StatusForbidden:
		kind = apperrors.ErrForbidden
	case http.StatusNotFound:
		kind = apperrors.ErrNotFound
	default:
		kind = apperrors.ErrUpstream
	}
	return kind.WithCode(status).WithMessage(msg).Wrap(cause)
}

// ExtractMessage reads the user-facing text of a backend error payload
// {"message": string | string[]}. Array entries are joined with "; ".
func ExtractMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Message) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(payload.Message, &single); err == nil {
		return strings.TrimSpace(single)
	}
	var many []string
	if err := json.Unmarshal(payload.Message, &many); err == nil {
		parts := many[:0]
		for _, m := range many {
			if m = strings.TrimSpace(m); m != "" {
				parts = append(parts, m)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

func BodyFromBytes(b []byte) io.Reader {
	if len(b) == 0 {
		return nil
	}
	return bytes.NewReader(b)
}

// Login exchanges credentials for an access token. A 401 means bad credentials.
func (c *BackendClient) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.decode(ctx, call{
		method:         http.MethodPost,
		path:           "/auth/login",
		body:           models.LoginRequest{Email: email, Password: password},
		fallback:       "Login failed",
		onUnauthorized: apperrors.ErrInvalidCredentials,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, apperrors.ErrUpstream.WithMessage("Login response did not include an access token")
	}
	return &out, nil
}

func (c *BackendClient) Profile(ctx context.Context, token string) (*models.UserProfile, error) {
	var out models.UserProfile
	if err := c.decode(ctx, call{method: http.MethodGet, path: "/auth/profile", token: token, fallback: "Could not load profile"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) ListProducts(ctx context.Context, token string) ([]models.Product, error) {
	var out []models.Product
	if err := c.decode(ctx, call{method: http.MethodGet, path: "/products", token: token, fallback: "Error loading products"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BackendClient) GetProduct(ctx context.Context, token string, id int64) (*models.Product, error) {
	var out models.Product
	if err := c.decode(ctx, call{method: http.MethodGet, path: productPath(id), token: token, fallback: "Error loading product"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) CreateProduct(ctx context.Context, token string, req models.CreateProductRequest) (*models.Product, error) {
	var out models.Product
	if err := c.decode(ctx, call{method: http.MethodPost, path: "/products", token: token, body: req, fallback: "Error creating product"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) UpdateProduct(ctx context.Context, token string, id int64, req models.UpdateProductRequest) (*models.Product, error) {
	var out models.Product
	if err := c.decode(ctx, call{method: http.MethodPatch, path: productPath(id), token: token, body: req, fallback: "Error updating product"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) DeleteProduct(ctx context.Context, token string, id int64) error {
	return c.decode(ctx, call{method: http.MethodDelete, path: productPath(id), token: token, fallback: "Error deleting product"}, nil)
}

// CreateSale submits a sale. The body is parsed leniently; see models.ParseSaleResponse.
func (c *BackendClient) CreateSale(ctx context.Context, token string, sale models.PendingSale) (models.SaleResult, error) {
	body, err := c.do(ctx, call{method: http.MethodPost, path: "/sales", token: token, body: sale, fallback: "Error processing sale"})
	if err != nil {
		return models.SaleResult{}, err
	}
	return models.ParseSaleResponse(body), nil
}

func (c *BackendClient) ListSales(ctx context.Context, token string) ([]models.Sale, error) {
	var out []models.Sale
	if err := c.decode(ctx, call{method: http.MethodGet, path: "/sales", token: token, fallback: "Error loading sales"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BackendClient) DashboardStats(ctx context.Context, token string) (*models.DashboardStats, error) {
	var out models.DashboardStats
	if err := c.decode(ctx, call{method: http.MethodGet, path: "/dashboard/stats", token: token, fallback: "Error loading dashboard"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	var out []models.User
	if err := c.decode(ctx, call{method: http.MethodGet, path: "/users", token: token, fallback: "Error loading users"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BackendClient) GetUser(ctx context.Context, token string, id int64) (*models.User, error) {
	var out models.User
	if err := c.decode(ctx, call{method: http.MethodGet, path: userPath(id), token: token, fallback: "Error loading user"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) CreateUser(ctx context.Context, token string, req models.CreateUserRequest) (*models.User, error) {
	var out models.User
	if err := c.decode(ctx, call{method: http.MethodPost, path: "/users", token: token, body: req, fallback: "Error saving user"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) UpdateUser(ctx context.Context, token string, id int64, req models.UpdateUserRequest) (*models.User, error) {
	var out models.User
	if err := c.decode(ctx, call{method: http.MethodPatch, path: userPath(id), token: token, body: req, fallback: "Error saving user"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) DeleteUser(ctx context.Context, token string, id int64) error {
	return c.decode(ctx, call{method: http.MethodDelete, path: userPath(id), token: token, fallback: "Error deleting user"}, nil)
}

func productPath(id int64) string { return "/products/" + strconv.FormatInt(id, 10) }
func userPath(id int64) string    { return "/users/" + strconv.FormatInt(id, 10) }
