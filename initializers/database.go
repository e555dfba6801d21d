package initializers

import (
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectToDB() {
	var err error
	// TranslateError lets duplicate-key collisions surface as
	// gorm.ErrDuplicatedKey, which the order-number retry relies on.
	DB, err = gorm.Open(mysql.Open(Cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
}
