package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cristopher43/gamer-zeta-frontend/apperrors"
	"github.com/cristopher43/gamer-zeta-frontend/clients"
	"github.com/cristopher43/gamer-zeta-frontend/controllers"
	"github.com/cristopher43/gamer-zeta-frontend/database"
	"github.com/cristopher43/gamer-zeta-frontend/logger"
	"github.com/cristopher43/gamer-zeta-frontend/models"
	"github.com/cristopher43/gamer-zeta-frontend/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productsJSON = `[
	{"id":1,"name":"Gamer Mouse","price":15990,"stock":10,"category":"Peripherals","active":true},
	{"id":2,"name":"Mechanical Keyboard","price":37200,"stock":5,"category":"Peripherals","active":true},
	{"id":3,"name":"Old Mousepad","price":1000,"stock":3,"category":"Accessories","active":false}
]`

// fakeBackend stands in for the POS REST API.
type fakeBackend struct {
	mu           sync.Mutex
	sales        []models.PendingSale
	saleStatus   int
	saleBody     string
	productLoads int
	deleted      []string
}

func (f *fakeBackend) router() *gin.Engine {
	r := gin.New()

	tokens := map[string]string{
		"Bearer tok-cashier": `{"id":7,"name":"Ana","email":"ana@zeta.cl","rol":"cashier"}`,
		"Bearer tok-admin":   `{"id":"1","name":"Root","email":"root@zeta.cl","role":"admin"}`,
	}
	authed := func(c *gin.Context) {
		if _, ok := tokens[c.GetHeader("Authorization")]; !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		}
	}

	r.POST("/auth/login", func(c *gin.Context) {
		var req models.LoginRequest
		_ = c.ShouldBindJSON(&req)
		switch {
		case req.Email == "ana@zeta.cl" && req.Password == "secret":
			c.JSON(http.StatusOK, gin.H{"access_token": "tok-cashier", "email": req.Email, "name": "Ana", "rol": "cashier"})
		case req.Email == "root@zeta.cl" && req.Password == "secret":
			c.JSON(http.StatusOK, gin.H{"access_token": "tok-admin", "email": req.Email, "name": "Root", "rol": "admin"})
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		}
	})
	r.GET("/auth/profile", authed, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(tokens[c.GetHeader("Authorization")]))
	})
	r.GET("/products", authed, func(c *gin.Context) {
		f.mu.Lock()
		f.productLoads++
		f.mu.Unlock()
		c.Data(http.StatusOK, "application/json", []byte(productsJSON))
	})
	r.DELETE("/products/:id", authed, func(c *gin.Context) {
		f.mu.Lock()
		f.deleted = append(f.deleted, c.Param("id"))
		f.mu.Unlock()
		c.Status(http.StatusNoContent)
	})
	r.POST("/sales", authed, func(c *gin.Context) {
		var sale models.PendingSale
		_ = c.ShouldBindJSON(&sale)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sales = append(f.sales, sale)
		c.Data(f.saleStatus, "application/json", []byte(f.saleBody))
	})
	r.GET("/sales", authed, func(c *gin.Context) {
		var b strings.Builder
		b.WriteString("[")
		for i := 1; i <= 12; i++ {
			if i > 1 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"id":%d,"date":"2026-10-%02dT10:00:00Z","total":"1000"}`, i, i)
		}
		b.WriteString("]")
		c.Data(http.StatusOK, "application/json", []byte(b.String()))
	})
	r.GET("/dashboard/stats", authed, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(`{"totalSales":12,"salesToday":1,"productsSold":30,"totalRevenue":"12000"}`))
	})
	return r
}

func (f *fakeBackend) respondToSales(status int, body string) {
	f.mu.Lock()
	f.saleStatus, f.saleBody = status, body
	f.mu.Unlock()
}

type harness struct {
	t       *testing.T
	router  *gin.Engine
	backend *fakeBackend
	redis   *miniredis.Miniredis
	catalog *services.CatalogService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := &fakeBackend{}
	backend.respondToSales(http.StatusCreated, `{"sale":{"id":55,"subtotal":"69180","tax":"13144","total":"82324","paymentMethod":"Card"},"receipt":{"number":"B-00055","customerName":"Juan"}}`)
	srv := httptest.NewServer(backend.router())
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	api := clients.NewBackendClient(srv.URL, 2*time.Second, clients.BreakerSettings{})
	sessions := services.NewSessionService(api, database.NewRedisSessionRepository(rdb, time.Hour))
	catalog := services.NewCatalogService(api, time.Second)
	workspaces := services.NewWorkspaceRegistry(catalog, database.NewRedisCartRepository(rdb, time.Hour))
	sessions.OnLogout(workspaces.Drop)
	checkout := services.NewCheckoutService(api, catalog, nil, nil, services.CheckoutOptions{})
	t.Cleanup(func() {
		checkout.Wait()
		catalog.Wait()
	})

	r := gin.New()
	r.Use(logger.RequestID(), apperrors.ErrorMiddleware())
	RegisterRoutes(r, Controllers{
		Auth:    controllers.NewAuthController(sessions, controllers.CookieSettings{Name: "pos_session", MaxAge: time.Hour}, nil),
		Cashier: controllers.NewCashierController(sessions, catalog, workspaces, checkout),
		Admin:   controllers.NewAdminController(sessions, services.NewAdminService(api, catalog)),
	}, GateConfig{Sessions: sessions, CookieName: "pos_session"})

	return &harness{t: t, router: r, backend: backend, redis: mr, catalog: catalog}
}

func (h *harness) do(method, path, body, sid string) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "pos_session", Value: sid})
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) login(email string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/auth/login", fmt.Sprintf(`{"email":%q,"password":"secret"}`, email), "")
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == "pos_session" {
			return c.Value
		}
	}
	h.t.Fatal("login did not set the session cookie")
	return ""
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestCashierCheckoutFlow(t *testing.T) {
	h := newHarness(t)
	sid := h.login("ana@zeta.cl")

	w := h.do(http.MethodGet, "/cashier/products", "", sid)
	require.Equal(t, http.StatusOK, w.Code)
	products := decode[struct{ Products []models.Product }](t, w).Products
	assert.Len(t, products, 2, "inactive products are hidden from the cashier")

	w = h.do(http.MethodPost, "/cashier/cart/items", `{"product_id":1,"quantity":2}`, sid)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodPost, "/cashier/cart/items", `{"product_id":2,"quantity":6}`, sid)
	require.Equal(t, http.StatusConflict, w.Code)
	rejected := decode[apperrors.Error](t, w)
	assert.Equal(t, float64(5), rejected.Details["available"])

	w = h.do(http.MethodPost, "/cashier/cart/items", `{"product_id":2}`, sid)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, h.redis.Exists(database.CartKey(sid)), "cart is written through")

	w = h.do(http.MethodPut, "/cashier/checkout/form", `{"payment_method":"Card","customer_name":"Juan"}`, sid)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodPost, "/cashier/checkout", "", sid)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	receipt := decode[struct{ Receipt models.ReceiptRecord }](t, w).Receipt
	assert.Equal(t, "B-00055", receipt.ReceiptNumber)
	assert.Equal(t, "Ana", receipt.CashierName)
	require.Len(t, receipt.Lines, 2)
	assert.Equal(t, "Gamer Mouse", receipt.Lines[0].Name)
	assert.Equal(t, 2, receipt.Lines[0].Quantity)

	h.backend.mu.Lock()
	require.Len(t, h.backend.sales, 1)
	sent := h.backend.sales[0]
	h.backend.mu.Unlock()
	assert.Equal(t, int64(7), sent.BuyerID)
	assert.Equal(t, models.PaymentCard, sent.PaymentMethod)
	assert.Equal(t, []models.SaleLine{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}, sent.Lines)

	w = h.do(http.MethodGet, "/cashier", "", sid)
	state := decode[struct {
		Cart   models.CartView
		Form   models.CheckoutForm
		Notice *models.Notice
	}](t, w)
	assert.Empty(t, state.Cart.Lines)
	assert.Equal(t, models.DefaultCheckoutForm(), state.Form)
	assert.Equal(t, services.MessageSaleCompleted, state.Notice.Message)

	w = h.do(http.MethodGet, "/cashier/receipt/print", "", sid)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Mechanical Keyboard")
	assert.Contains(t, w.Body.String(), "window.print()")

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/cashier/receipt", "", sid).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/cashier/receipt", "", sid).Code)

	h.catalog.Wait()
	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	assert.GreaterOrEqual(t, h.backend.productLoads, 2, "catalog is refreshed after the sale")
}

func TestCheckoutRejectedByBackendKeepsCart(t *testing.T) {
	h := newHarness(t)
	h.backend.respondToSales(http.StatusBadRequest, `{"message":["Insufficient stock for Gamer Mouse"]}`)
	sid := h.login("ana@zeta.cl")

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/cashier/cart/items", `{"product_id":1,"quantity":3}`, sid).Code)

	w := h.do(http.MethodPost, "/cashier/checkout", "", sid)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Insufficient stock for Gamer Mouse", decode[apperrors.Error](t, w).Message)

	cart := decode[models.CartView](t, h.do(http.MethodGet, "/cashier/cart", "", sid))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.Lines[0].Quantity)
	assert.False(t, cart.Processing)
}

func TestEmptyCartCheckout(t *testing.T) {
	h := newHarness(t)
	sid := h.login("ana@zeta.cl")

	w := h.do(http.MethodPost, "/cashier/checkout", "", sid)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	assert.Empty(t, h.backend.sales)
}

func TestExpiredTokenEndsSession(t *testing.T) {
	h := newHarness(t)
	h.backend.respondToSales(http.StatusUnauthorized, `{"message":"Token expired"}`)
	sid := h.login("ana@zeta.cl")
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/cashier/cart/items", `{"product_id":1}`, sid).Code)

	w := h.do(http.MethodPost, "/cashier/checkout", "", sid)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/login"`)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/cashier/cart", "", sid).Code)
	assert.False(t, h.redis.Exists(database.TokenKey(sid)))
}

func TestGateRedirects(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/cashier/cart", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/cashier/cart", "", "not-a-session").Code)

	sid := h.login("ana@zeta.cl")
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/admin/dashboard", "", sid).Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: "pos_session", Value: sid})
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/cashier", w.Header().Get("Location"))
}

func TestLogoutDropsSessionAndCart(t *testing.T) {
	h := newHarness(t)
	sid := h.login("ana@zeta.cl")
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/cashier/cart/items", `{"product_id":1}`, sid).Code)
	require.True(t, h.redis.Exists(database.CartKey(sid)))

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/auth/logout", "", sid).Code)

	assert.False(t, h.redis.Exists(database.CartKey(sid)))
	assert.False(t, h.redis.Exists(database.TokenKey(sid)))
	assert.False(t, h.redis.Exists(database.UserKey(sid)))
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/cashier/cart", "", sid).Code)

	// a second logout is harmless
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/auth/logout", "", sid).Code)
}

func TestInvalidLogin(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodPost, "/auth/login", `{"email":"ana@zeta.cl","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrInvalidCredentials.Message, decode[apperrors.Error](t, w).Message)
}

func TestAdminConsole(t *testing.T) {
	h := newHarness(t)
	sid := h.login("root@zeta.cl")

	w := h.do(http.MethodGet, "/admin/dashboard", "", sid)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dashboard := decode[models.Dashboard](t, w)
	assert.Equal(t, 12, dashboard.Stats.TotalSales)
	require.Len(t, dashboard.RecentSales, 10)
	assert.Equal(t, int64(12), dashboard.RecentSales[0].ID)
	assert.Equal(t, int64(3), dashboard.RecentSales[9].ID)

	w = h.do(http.MethodGet, "/admin/products?search=MOUSE", "", sid)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[struct{ Products []models.Product }](t, w).Products
	assert.Len(t, found, 2, "admins also see inactive products")

	w = h.do(http.MethodPost, "/admin/products", `{"name":"Cable","category":"Accessories","price":-1,"stock":1}`, sid)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodDelete, "/admin/products/2", "", sid)
	assert.Equal(t, http.StatusNoContent, w.Code)
	h.backend.mu.Lock()
	assert.Equal(t, []string{"2"}, h.backend.deleted)
	h.backend.mu.Unlock()

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodDelete, "/admin/products/abc", "", sid).Code)
}
