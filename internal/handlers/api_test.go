package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmmart/farmmart-api/internal/handlers"
	"github.com/farmmart/farmmart-api/internal/models"
	"github.com/farmmart/farmmart-api/internal/routes"
	"github.com/farmmart/farmmart-api/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *store.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := store.NewMemory()
	app := &handlers.Handlers{Store: st}
	return &testServer{router: routes.SetupRouter(app), store: st}
}

// do sends a JSON request, optionally with a Bearer token, and returns
// the recorder plus the decoded response body.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	decoded := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

// signup registers a user and returns a login token.
func (ts *testServer) signup(t *testing.T, role, name, email string) string {
	t.Helper()

	w, _ := ts.do(t, http.MethodPost, "/v1/signup", "", gin.H{
		"role": role, "name": name, "email": email, "password": "hunter2-long",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := ts.do(t, http.MethodPost, "/v1/login", "", gin.H{
		"email": email, "password": "hunter2-long",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token, ok := resp["token"].(string)
	require.True(t, ok, "login response must carry a token")
	return token
}

// seedProduct inserts a product directly through the store.
func (ts *testServer) seedProduct(t *testing.T, farmerID int64, name string, price int64, stock int) models.Product {
	t.Helper()
	p := models.Product{
		FarmerID: farmerID,
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Quantity: stock,
		Category: "Produce",
	}
	require.NoError(t, ts.store.CreateProduct(context.Background(), &p))
	return p
}

func TestSignupAndLogin(t *testing.T) {
	ts := newTestServer(t)

	t.Run("happy path", func(t *testing.T) {
		token := ts.signup(t, "customer", "Carl", "carl@example.com")
		assert.NotEmpty(t, token)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		w, resp := ts.do(t, http.MethodPost, "/v1/signup", "", gin.H{
			"role": "customer", "name": "Other", "email": "carl@example.com", "password": "hunter2-long",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, resp["error"], "already registered")
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodPost, "/v1/signup", "", gin.H{
			"role": "admin", "name": "Eve", "email": "eve@example.com", "password": "hunter2-long",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodPost, "/v1/login", "", gin.H{
			"email": "carl@example.com", "password": "not-the-password",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRoleGates(t *testing.T) {
	ts := newTestServer(t)
	customerToken := ts.signup(t, "customer", "Carl", "carl@example.com")
	farmerToken := ts.signup(t, "farmer", "Greta", "greta@example.com")

	t.Run("no token", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodGet, "/v1/customer/cart", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("customer cannot use farmer routes", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodGet, "/v1/farmer/dashboard", customerToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("farmer cannot use customer routes", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodPost, "/v1/customer/checkout", farmerToken, gin.H{"payment_option": "cash"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodGet, "/v1/customer/cart", "not.a.jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestFarmerProductLifecycle(t *testing.T) {
	ts := newTestServer(t)
	farmerToken := ts.signup(t, "farmer", "Greta", "greta@example.com")

	w, resp := ts.do(t, http.MethodPost, "/v1/farmer/products", farmerToken, gin.H{
		"name": "Tomatoes", "price": "3.50", "quantity": 40, "category": "Vegetables",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	product := resp["product"].(map[string]any)
	assert.Equal(t, "Tomatoes", product["name"])

	t.Run("negative price rejected", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodPost, "/v1/farmer/products", farmerToken, gin.H{
			"name": "Bad", "price": "-1", "quantity": 1, "category": "Vegetables",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("marketplace lists it", func(t *testing.T) {
		w, resp := ts.do(t, http.MethodGet, "/v1/marketplace?category=Vegetables", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp["products"], 1)
	})

	t.Run("search filter", func(t *testing.T) {
		w, resp := ts.do(t, http.MethodGet, "/v1/marketplace?search=toma", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp["products"], 1)

		w, resp = ts.do(t, http.MethodGet, "/v1/marketplace?search=nope", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp["products"], 0)
	})

	t.Run("delete own product", func(t *testing.T) {
		id := int64(product["id"].(float64))
		w, _ := ts.do(t, http.MethodDelete, "/v1/farmer/products/"+itoa(id), farmerToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = ts.do(t, http.MethodDelete, "/v1/farmer/products/"+itoa(id), farmerToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteProductAgainstCartsAndOrders(t *testing.T) {
	ts := newTestServer(t)
	farmerToken := ts.signup(t, "farmer", "Greta", "greta@example.com")
	customerToken := ts.signup(t, "customer", "Carl", "carl@example.com")

	apples := ts.seedProduct(t, 1, "Apples", 10, 5)
	bread := ts.seedProduct(t, 1, "Bread", 5, 5)

	for _, p := range []models.Product{apples, bread} {
		w, _ := ts.do(t, http.MethodPost, "/v1/customer/cart/items", customerToken, gin.H{
			"product_id": p.ID, "quantity": 1,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("carted product deletes and empties the line", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodDelete, "/v1/farmer/products/"+itoa(bread.ID), farmerToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w, resp := ts.do(t, http.MethodGet, "/v1/customer/cart", customerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		items := resp["items"].([]any)
		require.Len(t, items, 1, "the bread line vanishes with the product")
		assert.Equal(t, "Apples", items[0].(map[string]any)["productName"])
	})

	t.Run("ordered product is refused with 409", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodPost, "/v1/customer/checkout", customerToken, gin.H{"payment_option": "cash"})
		require.Equal(t, http.StatusCreated, w.Code)

		w, resp := ts.do(t, http.MethodDelete, "/v1/farmer/products/"+itoa(apples.ID), farmerToken, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, resp["error"], "has orders")

		// The order still resolves its product.
		w, resp = ts.do(t, http.MethodGet, "/v1/customer/orders", customerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		orders := resp["orders"].([]any)
		require.Len(t, orders, 1)
		assert.Equal(t, "Apples", orders[0].(map[string]any)["productName"])
	})
}

func TestCartAndCheckoutFlow(t *testing.T) {
	ts := newTestServer(t)
	_ = ts.signup(t, "farmer", "Greta", "greta@example.com")
	customerToken := ts.signup(t, "customer", "Carl", "carl@example.com")

	apples := ts.seedProduct(t, 1, "Apples", 10, 5)
	bread := ts.seedProduct(t, 1, "Bread", 5, 5)

	// Add 2 apples in two steps to exercise the merge, then 1 bread.
	for _, qty := range []int{1, 1} {
		w, _ := ts.do(t, http.MethodPost, "/v1/customer/cart/items", customerToken, gin.H{
			"product_id": apples.ID, "quantity": qty,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w, _ := ts.do(t, http.MethodPost, "/v1/customer/cart/items", customerToken, gin.H{
		"product_id": bread.ID, "quantity": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := ts.do(t, http.MethodGet, "/v1/customer/cart", customerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := resp["items"].([]any)
	require.Len(t, items, 2, "same product twice merges into one line")
	assert.Equal(t, "25", resp["totalPrice"], "2x10 + 1x5")

	t.Run("zero quantity rejected at the boundary", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodPost, "/v1/customer/cart/items", customerToken, gin.H{
			"product_id": apples.ID, "quantity": 0,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid payment option", func(t *testing.T) {
		w, resp := ts.do(t, http.MethodPost, "/v1/customer/checkout", customerToken, gin.H{
			"payment_option": "barter",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp["error"], "Invalid payment option")
	})

	t.Run("checkout places orders", func(t *testing.T) {
		w, resp := ts.do(t, http.MethodPost, "/v1/customer/checkout", customerToken, gin.H{
			"payment_option": "credit",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		orders := resp["orders"].([]any)
		require.Len(t, orders, 2)

		first := orders[0].(map[string]any)
		assert.Equal(t, "Pending", first["status"])
		assert.Equal(t, "credit", first["paymentOption"])
		assert.Equal(t, "20", first["totalPrice"])

		// Cart is now empty.
		w, resp = ts.do(t, http.MethodGet, "/v1/customer/cart", customerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp["items"], 0)

		// Stock moved: 5-2=3 apples, 5-1=4 bread.
		p, err := ts.store.ProductByID(context.Background(), apples.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, p.Quantity)
		p, err = ts.store.ProductByID(context.Background(), bread.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, p.Quantity)
	})

	t.Run("empty cart checkout rejected", func(t *testing.T) {
		w, resp := ts.do(t, http.MethodPost, "/v1/customer/checkout", customerToken, gin.H{
			"payment_option": "cash",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp["error"], "cart is empty")
	})

	t.Run("shortage names the product and commits nothing", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodPost, "/v1/customer/cart/items", customerToken, gin.H{
			"product_id": apples.ID, "quantity": 100,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w, resp := ts.do(t, http.MethodPost, "/v1/customer/checkout", customerToken, gin.H{
			"payment_option": "cash",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, resp["error"], "Not enough stock for Apples")

		p, err := ts.store.ProductByID(context.Background(), apples.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, p.Quantity, "stock untouched by the failed checkout")

		w, resp = ts.do(t, http.MethodGet, "/v1/customer/cart", customerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp["items"], 1, "cart line survives the failed checkout")
	})
}

func TestOrderEndpoints(t *testing.T) {
	ts := newTestServer(t)
	_ = ts.signup(t, "farmer", "Greta", "greta@example.com")
	customerToken := ts.signup(t, "customer", "Carl", "carl@example.com")
	otherToken := ts.signup(t, "customer", "Dina", "dina@example.com")

	apples := ts.seedProduct(t, 1, "Apples", 10, 5)

	w, _ := ts.do(t, http.MethodPost, "/v1/customer/cart/items", customerToken, gin.H{
		"product_id": apples.ID, "quantity": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w, resp := ts.do(t, http.MethodPost, "/v1/customer/checkout", customerToken, gin.H{"payment_option": "debit"})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := itoa(int64(resp["orders"].([]any)[0].(map[string]any)["id"].(float64)))

	t.Run("list own orders", func(t *testing.T) {
		w, resp := ts.do(t, http.MethodGet, "/v1/customer/orders", customerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		orders := resp["orders"].([]any)
		require.Len(t, orders, 1)
		assert.Equal(t, "Apples", orders[0].(map[string]any)["productName"])
	})

	t.Run("another customer sees nothing", func(t *testing.T) {
		w, resp := ts.do(t, http.MethodGet, "/v1/customer/orders", otherToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp["orders"], 0)
	})

	t.Run("confirm delivery by non-owner is a no-op", func(t *testing.T) {
		w, resp := ts.do(t, http.MethodPatch, "/v1/customer/orders/"+orderID+"/confirm-delivery", otherToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, resp["message"], "No pending order found")

		w, resp = ts.do(t, http.MethodGet, "/v1/customer/orders", customerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		order := resp["orders"].([]any)[0].(map[string]any)
		assert.Equal(t, "Pending", order["status"])
	})

	t.Run("owner confirms delivery once", func(t *testing.T) {
		w, resp := ts.do(t, http.MethodPatch, "/v1/customer/orders/"+orderID+"/confirm-delivery", customerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, resp["message"], "confirmed as delivered")

		// Second confirmation is the benign no-op.
		w, resp = ts.do(t, http.MethodPatch, "/v1/customer/orders/"+orderID+"/confirm-delivery", customerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, resp["message"], "No pending order found")
	})

	t.Run("farmer dashboard shows the sale", func(t *testing.T) {
		farmerToken := ts.signup(t, "farmer", "Hans", "hans@example.com")
		w, resp := ts.do(t, http.MethodGet, "/v1/farmer/dashboard", farmerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp["orders"], 0, "other farmers see no orders")

		// Greta (farmer id 1) owns the product behind the order.
		gretaToken := ts.loginExisting(t, "greta@example.com")
		w, resp = ts.do(t, http.MethodGet, "/v1/farmer/dashboard", gretaToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp["orders"], 1)
	})

	t.Run("delete order", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodDelete, "/v1/customer/orders/"+orderID, otherToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = ts.do(t, http.MethodDelete, "/v1/customer/orders/"+orderID, customerToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func (ts *testServer) loginExisting(t *testing.T, email string) string {
	t.Helper()
	w, resp := ts.do(t, http.MethodPost, "/v1/login", "", gin.H{
		"email": email, "password": "hunter2-long",
	})
	require.Equal(t, http.StatusOK, w.Code)
	return resp["token"].(string)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
