package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nakshstore/naksh-api/repository"
	"github.com/nakshstore/naksh-api/services"
	"github.com/sirupsen/logrus"
)

// Deps carries everything the handlers need; main wires the gorm store in,
// tests wire the in-memory store.
type Deps struct {
	Orders       *services.OrderService
	OrderRepo    repository.OrderRepository
	Catalog      repository.CatalogReader
	CatalogAdmin repository.CatalogAdmin
	Addresses    repository.AddressRepository
	Users        repository.UserRepository
}

var deps Deps

func Init(d Deps) {
	deps = d
}

func sendJSONResponse(ctx *gin.Context, status int, data gin.H) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"message": message})
}

// respondPipelineError maps pipeline errors onto the HTTP taxonomy. Gateway
// errors are logged with full detail but never leaked to the caller.
func respondPipelineError(ctx *gin.Context, err error) {
	var oos *repository.OutOfStockError
	var upstream *services.UpstreamError

	switch {
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidDiscount):
		sendErrorResponse(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNoAddress):
		sendErrorResponse(ctx, http.StatusBadRequest, "No active shipping address on file")
	case errors.Is(err, services.ErrProductNotFound):
		sendErrorResponse(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrOrderNotFound):
		sendErrorResponse(ctx, http.StatusNotFound, "Order not found")
	case errors.Is(err, services.ErrNotCancellable):
		sendErrorResponse(ctx, http.StatusBadRequest, "Order can no longer be cancelled")
	case errors.Is(err, services.ErrSignatureMismatch):
		sendErrorResponse(ctx, http.StatusBadRequest, "Payment signature verification failed")
	case errors.As(err, &oos):
		sendJSONResponse(ctx, http.StatusConflict, gin.H{
			"message":   "Insufficient stock",
			"productId": oos.ProductID,
			"available": oos.Available,
			"requested": oos.Requested,
		})
	case errors.As(err, &upstream):
		logrus.WithError(err).Error("payment gateway unavailable")
		sendJSONResponse(ctx, http.StatusBadGateway, gin.H{
			"message":   "Payment gateway unavailable, please retry",
			"retryable": true,
		})
	default:
		logrus.WithError(err).Error("unexpected pipeline error")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Internal server error")
	}
}

func currentClaims(ctx *gin.Context) (jwt.MapClaims, bool) {
	userClaims, exists := ctx.Get("user")
	if !exists {
		return nil, false
	}
	claims, ok := userClaims.(jwt.MapClaims)
	return claims, ok
}

func currentUserID(ctx *gin.Context) (uint, bool) {
	claims, ok := currentClaims(ctx)
	if !ok {
		return 0, false
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, false
	}
	return uint(id), true
}

func isAdmin(ctx *gin.Context) bool {
	claims, ok := currentClaims(ctx)
	if !ok {
		return false
	}
	role, _ := claims["role"].(string)
	return role == "admin"
}
