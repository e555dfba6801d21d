package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"path/filepath"

	"github.com/nakshstore/naksh-api/initializers"
	"github.com/nakshstore/naksh-api/models"
)

type EmailData struct {
	Name        string
	Message     string
	OrderNumber string
	FinalAmount string
}

func SendEmail(emailTo string, emailSubject string, data EmailData, templatePath string) error {
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var body bytes.Buffer
	err = tmpl.Execute(&body, data)
	if err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	message := fmt.Sprintf(
		"From: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		initializers.Cfg.FromEmail,
		emailSubject,
		body.String(),
	)

	auth := smtp.PlainAuth(
		"",
		initializers.Cfg.FromEmail,
		initializers.Cfg.FromEmailPassword,
		initializers.Cfg.FromEmailSMTP,
	)

	err = smtp.SendMail(initializers.Cfg.SMTPAddress, auth, initializers.Cfg.FromEmail, []string{emailTo}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendOrderConfirmation notifies the customer that their payment went through.
// Callers treat failures as best-effort: the order is confirmed either way.
func SendOrderConfirmation(emailTo, name string, order *models.Order) error {
	emailData := EmailData{
		Name:        name,
		Message:     "Your payment was received and your order is confirmed.",
		OrderNumber: order.OrderNumber,
		FinalAmount: order.FinalAmount.StringFixed(2),
	}

	templatePath := filepath.Join("templates", "order_confirmed.html")
	return SendEmail(emailTo, "Order "+order.OrderNumber+" confirmed", emailData, templatePath)
}
