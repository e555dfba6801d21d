package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nakshstore/naksh-api/models"
	"github.com/nakshstore/naksh-api/repository"
)

func CreateOrder(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req models.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := deps.Orders.Checkout(ctx.Request.Context(), userID, req.Items)
	if err != nil {
		respondPipelineError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusCreated, gin.H{
		"message":        "Order created successfully. Complete the payment to confirm it.",
		"orderId":        result.Order.ID,
		"orderNumber":    result.Order.OrderNumber,
		"gatewayOrderId": result.GatewayOrderID,
		"amount":         result.AmountDue,
		"currency":       result.Currency,
		"breakdown":      result.Quote,
	})
}

func VerifyPayment(ctx *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Missing payment verification fields")
		return
	}

	order, err := deps.Orders.VerifyPayment(ctx.Request.Context(), req)
	if err != nil && order == nil {
		respondPipelineError(ctx, err)
		return
	}
	if err != nil {
		// Signature mismatch: the order was marked FAILED.
		sendJSONResponse(ctx, http.StatusBadRequest, gin.H{
			"message": "Payment signature verification failed",
			"orderId": order.ID,
			"status":  order.Status,
		})
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"status":      order.Status,
	})
}

func CancelOrder(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	orderID, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderId")
		return
	}

	order, err := deps.Orders.Cancel(ctx.Request.Context(), userID, uint(orderID))
	if err != nil {
		respondPipelineError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message": "Order cancelled successfully.",
		"orderId": order.ID,
		"status":  order.Status,
	})
}

func GetOrderByID(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	orderID, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderId")
		return
	}

	order, err := deps.OrderRepo.GetByID(ctx.Request.Context(), uint(orderID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, "Order not found")
			return
		}
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch order.")
		return
	}
	if order.UserID != int(userID) && !isAdmin(ctx) {
		sendErrorResponse(ctx, http.StatusNotFound, "Order not found")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order})
}

func GetOrdersByCustomerID(ctx *gin.Context) {
	requesterID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	userID, err := strconv.Atoi(ctx.Param("userId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse userId")
		return
	}
	if uint(userID) != requesterID && !isAdmin(ctx) {
		sendErrorResponse(ctx, http.StatusForbidden, "Cannot view another customer's orders")
		return
	}

	orders, err := deps.OrderRepo.ListByUser(ctx.Request.Context(), uint(userID))
	if err != nil {
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch orders.")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"orders": orders})
}

func GetOrders(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "15"))
	if page < 1 {
		page = 1
	}

	orders, count, err := deps.OrderRepo.List(ctx.Request.Context(), page, limit)
	if err != nil {
		sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to fetch orders")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"orders": orders,
		"metadata": gin.H{
			"total": count,
			"page":  page,
			"limit": limit,
		},
	})
}

// shippingTransitions are the only admin-driven moves; the payment pipeline
// owns everything before CONFIRMED.
var shippingTransitions = map[string]string{
	models.OrderStatusShipped:   models.OrderStatusConfirmed,
	models.OrderStatusDelivered: models.OrderStatusShipped,
}

func UpdateOrderStatus(ctx *gin.Context) {
	var statusData struct {
		Status string `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&statusData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse request body")
		return
	}

	orderID, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderId")
		return
	}

	from, allowed := shippingTransitions[statusData.Status]
	if !allowed {
		sendErrorResponse(ctx, http.StatusBadRequest, "Unsupported status transition")
		return
	}

	updated, err := deps.OrderRepo.TransitionStatus(ctx.Request.Context(), uint(orderID), from, statusData.Status)
	if err != nil {
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to update order status")
		return
	}
	if !updated {
		sendErrorResponse(ctx, http.StatusBadRequest, "Order is not in a state that allows this transition")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Order status updated successfully."})
}
