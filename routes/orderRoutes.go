package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/nakshstore/naksh-api/controllers"
	"github.com/nakshstore/naksh-api/middlewares"
)

func OrderRoutes(server *gin.Engine) {
	authed := server.Group("/", middlewares.RequireAuth())
	{
		authed.POST("/order", controllers.CreateOrder)
		authed.POST("/payment/verify", controllers.VerifyPayment)
		authed.POST("/order/:orderId/cancel", controllers.CancelOrder)
		authed.GET("/order/:orderId", controllers.GetOrderByID)
		authed.GET("/order/:orderId/invoice", controllers.GetInvoice)
		authed.GET("/user/:userId/orders", controllers.GetOrdersByCustomerID)
	}

	admin := server.Group("/", middlewares.RequireAuth(), middlewares.RequireAdmin())
	{
		admin.GET("/order", controllers.GetOrders)
		admin.PATCH("/order/:orderId/status", controllers.UpdateOrderStatus)
	}
}
