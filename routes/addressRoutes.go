package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/nakshstore/naksh-api/controllers"
	"github.com/nakshstore/naksh-api/middlewares"
)

func AddressRoutes(server *gin.Engine) {
	authed := server.Group("/address", middlewares.RequireAuth())
	{
		authed.POST("", controllers.CreateAddress)
		authed.GET("", controllers.GetAddresses)
	}
}
