package main

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nakshstore/naksh-api/controllers"
	"github.com/nakshstore/naksh-api/initializers"
	"github.com/nakshstore/naksh-api/models"
	"github.com/nakshstore/naksh-api/repository"
	"github.com/nakshstore/naksh-api/routes"
	"github.com/nakshstore/naksh-api/services"
	"github.com/nakshstore/naksh-api/utils"
	"github.com/sirupsen/logrus"
)

func init() {
	initializers.LoadEnv()
	initializers.ConnectToDB()
	initializers.SyncDatabase()
}

func main() {
	store := repository.NewGormStore(initializers.DB)
	gateway := services.NewRazorpayGateway(
		initializers.Cfg.RazorpayBaseURL,
		initializers.Cfg.RazorpayKeyID,
		initializers.Cfg.RazorpayKeySecret,
		initializers.Cfg.GatewayTimeout,
	)
	pricing := services.NewPricingService(store)
	orders := services.NewOrderService(store, store, store, pricing, gateway, store, initializers.Cfg.Currency)
	orders.Notify = func(order *models.Order) {
		user, err := store.GetUserByID(context.Background(), uint(order.UserID))
		if err != nil {
			logrus.WithField("orderNumber", order.OrderNumber).WithError(err).Warn("confirmation email not sent")
			return
		}
		if err := utils.SendOrderConfirmation(user.Email, user.Fullname, order); err != nil {
			logrus.WithField("orderNumber", order.OrderNumber).WithError(err).Warn("confirmation email not sent")
		}
	}

	controllers.Init(controllers.Deps{
		Orders:       orders,
		OrderRepo:    store,
		Catalog:      store,
		CatalogAdmin: store,
		Addresses:    store,
		Users:        store,
	})

	server := gin.Default()
	server.Use(cors.New(cors.Config{
		AllowOrigins:     initializers.Cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.DefaultRoutes(server)
	routes.AuthRoutes(server)
	routes.ProductRoutes(server)
	routes.AddressRoutes(server)
	routes.OrderRoutes(server)
	server.Run(":" + initializers.Cfg.Port)
}
