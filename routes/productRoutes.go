package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/nakshstore/naksh-api/controllers"
	"github.com/nakshstore/naksh-api/middlewares"
)

func ProductRoutes(server *gin.Engine) {
	server.GET("/product", controllers.GetProducts)
	server.GET("/product/:id", controllers.GetProduct)

	admin := server.Group("/", middlewares.RequireAuth(), middlewares.RequireAdmin())
	{
		admin.POST("/product", controllers.CreateProduct)
		admin.PATCH("/product/:id/stock", controllers.UpdateProductStock)
	}
}
