package initializers

import (
	"github.com/nakshstore/naksh-api/models"
	"github.com/sirupsen/logrus"
)

func SyncDatabase() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		logrus.WithError(err).Fatal("database migration failed")
	}
	logrus.Info("database synced successfully")
}
