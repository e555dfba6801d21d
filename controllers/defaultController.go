package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to Naksh Store API.

The following are the endpoints for this API:

AUTH
- POST "/auth/signup" - Create user account
- POST "/auth/login" - Access user account

PRODUCT
- GET "/product" - Get all products
- GET "/product/{id}" - Get product by ID
- POST "/product" - Create new product (admin)
- PATCH "/product/{id}/stock" - Restock a product (admin)

ADDRESS
- POST "/address" - Add a shipping address
- GET "/address" - List your addresses

ORDER
- POST "/order" - Create a new order and payment intent
- POST "/payment/verify" - Verify a completed payment
- POST "/order/{orderId}/cancel" - Cancel a pending order
- GET "/order/{orderId}" - Get order by ID
- GET "/order/{orderId}/invoice" - Download order invoice PDF
- GET "/user/{userId}/orders" - Get orders for a customer
- GET "/order" - Retrieve all orders (admin)
- PATCH "/order/{orderId}/status" - Advance shipping status (admin)`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
