package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nakshstore/naksh-api/initializers"
	"github.com/nakshstore/naksh-api/middlewares"
	"github.com/nakshstore/naksh-api/models"
	"github.com/nakshstore/naksh-api/repository"
	"github.com/nakshstore/naksh-api/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubGateway struct{ intents int }

func (g *stubGateway) CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*services.PaymentIntent, error) {
	g.intents++
	return &services.PaymentIntent{
		GatewayOrderID: fmt.Sprintf("order_stub_%d", g.intents),
		Amount:         amount,
		Currency:       currency,
	}, nil
}

func (g *stubGateway) VerifySignature(gatewayOrderID, paymentID, signature string) error {
	if signature != "valid" {
		return services.ErrSignatureMismatch
	}
	return nil
}

func setupServer(t *testing.T) (*gin.Engine, *repository.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	initializers.Cfg.JWTSecret = "test-secret"

	store := repository.NewMemoryStore()
	pricing := services.NewPricingService(store)
	orders := services.NewOrderService(store, store, store, pricing, &stubGateway{}, store, "INR")
	Init(Deps{
		Orders:       orders,
		OrderRepo:    store,
		Catalog:      store,
		CatalogAdmin: store,
		Addresses:    store,
		Users:        store,
	})

	server := gin.New()
	authed := server.Group("/", middlewares.RequireAuth())
	{
		authed.POST("/order", CreateOrder)
		authed.POST("/payment/verify", VerifyPayment)
		authed.POST("/order/:orderId/cancel", CancelOrder)
		authed.POST("/address", CreateAddress)
	}
	return server, store
}

func authToken(t *testing.T, userID uint) string {
	t.Helper()
	token, err := generateJWT(models.User{
		Model: gorm.Model{ID: userID},
		Email: "customer@example.com",
		Role:  "customer",
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(t *testing.T, server *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder
}

func seedCatalog(t *testing.T, store *repository.MemoryStore, stock uint) models.Product {
	t.Helper()
	product := models.Product{
		Name:          "Copper Lamp",
		SellingPrice:  decimal.RequireFromString("100.00"),
		GSTPercentage: decimal.RequireFromString("18"),
		Stock:         stock,
		IsActive:      true,
	}
	require.NoError(t, store.CreateProduct(context.Background(), &product))
	return product
}

func TestCreateOrderRequiresAuth(t *testing.T) {
	server, _ := setupServer(t)
	recorder := doJSON(t, server, http.MethodPost, "/order", "", gin.H{"items": []gin.H{}})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestOrderPaymentFlow(t *testing.T) {
	server, store := setupServer(t)
	product := seedCatalog(t, store, 5)
	token := authToken(t, 1)

	recorder := doJSON(t, server, http.MethodPost, "/address", token, gin.H{
		"line1":   "12 MG Road",
		"city":    "Pune",
		"state":   "Maharashtra",
		"pincode": "411001",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = doJSON(t, server, http.MethodPost, "/order", token, gin.H{
		"items": []gin.H{{"productId": product.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var created struct {
		OrderID        uint   `json:"orderId"`
		GatewayOrderID string `json:"gatewayOrderId"`
		Amount         int64  `json:"amount"`
		Currency       string `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.Equal(t, int64(23600), created.Amount)
	assert.Equal(t, "INR", created.Currency)
	require.NotEmpty(t, created.GatewayOrderID)

	// Forged signature marks the order FAILED and never touches stock.
	recorder = doJSON(t, server, http.MethodPost, "/payment/verify", token, gin.H{
		"gatewayOrderId": created.GatewayOrderID,
		"paymentId":      "pay_1",
		"signature":      "forged",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	current, err := store.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(5), current.Stock)
}

func TestVerifyPaymentHappyPathAndCancelRejection(t *testing.T) {
	server, store := setupServer(t)
	product := seedCatalog(t, store, 5)
	token := authToken(t, 1)

	recorder := doJSON(t, server, http.MethodPost, "/address", token, gin.H{
		"line1":   "12 MG Road",
		"city":    "Pune",
		"state":   "Maharashtra",
		"pincode": "411001",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = doJSON(t, server, http.MethodPost, "/order", token, gin.H{
		"items": []gin.H{{"productId": product.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created struct {
		OrderID        uint   `json:"orderId"`
		GatewayOrderID string `json:"gatewayOrderId"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))

	recorder = doJSON(t, server, http.MethodPost, "/payment/verify", token, gin.H{
		"gatewayOrderId": created.GatewayOrderID,
		"paymentId":      "pay_1",
		"signature":      "valid",
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var verified struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &verified))
	assert.Equal(t, models.OrderStatusConfirmed, verified.Status)

	current, err := store.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(3), current.Stock)

	// Cancelling a confirmed order is rejected and leaves the status alone.
	recorder = doJSON(t, server, http.MethodPost, fmt.Sprintf("/order/%d/cancel", created.OrderID), token, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	order, err := store.GetByID(context.Background(), created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
}

func TestCreateOrderOutOfStockAtPricing(t *testing.T) {
	server, store := setupServer(t)
	product := seedCatalog(t, store, 1)
	token := authToken(t, 1)

	recorder := doJSON(t, server, http.MethodPost, "/address", token, gin.H{
		"line1":   "12 MG Road",
		"city":    "Pune",
		"state":   "Maharashtra",
		"pincode": "411001",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = doJSON(t, server, http.MethodPost, "/order", token, gin.H{
		"items": []gin.H{{"productId": product.ID, "quantity": 3}},
	})
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestCreateOrderWithoutAddress(t *testing.T) {
	server, store := setupServer(t)
	product := seedCatalog(t, store, 5)
	token := authToken(t, 1)

	recorder := doJSON(t, server, http.MethodPost, "/order", token, gin.H{
		"items": []gin.H{{"productId": product.ID, "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
