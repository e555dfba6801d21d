package initializers

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config is read once at startup and treated as immutable afterwards.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseDSN string `envconfig:"DATABASE_DSN" required:"true"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:4200"`

	RazorpayKeyID     string        `envconfig:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string        `envconfig:"RAZORPAY_KEY_SECRET"`
	RazorpayBaseURL   string        `envconfig:"RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	GatewayTimeout    time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"30s"`
	Currency          string        `envconfig:"CURRENCY" default:"INR"`

	InvoiceRendererURL string `envconfig:"INVOICE_RENDERER_URL"`
	InvoiceBucket      string `envconfig:"INVOICE_BUCKET"`

	FromEmail         string `envconfig:"FROM_EMAIL"`
	FromEmailPassword string `envconfig:"FROM_EMAIL_PASSWORD"`
	FromEmailSMTP     string `envconfig:"FROM_EMAIL_SMTP"`
	SMTPAddress       string `envconfig:"SMTP_ADDRESS"`
}

var Cfg Config

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, reading configuration from environment")
	}
	if err := envconfig.Process("", &Cfg); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
}
