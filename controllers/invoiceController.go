package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/nakshstore/naksh-api/initializers"
	"github.com/nakshstore/naksh-api/models"
	"github.com/nakshstore/naksh-api/repository"
	"github.com/sirupsen/logrus"
)

func getAWSUploader() (*manager.Uploader, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return manager.NewUploader(client), nil
}

// GetInvoice streams the order invoice PDF. Rendering is delegated to an
// external renderer service; a copy is archived to S3 best-effort.
func GetInvoice(ctx *gin.Context) {
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
	if order.Status == models.OrderStatusPending || order.Status == models.OrderStatusFailed {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invoice is only available for confirmed orders")
		return
	}

	rendererURL := initializers.Cfg.InvoiceRendererURL
	if rendererURL == "" {
		sendErrorResponse(ctx, http.StatusServiceUnavailable, "Invoice rendering is not configured")
		return
	}

	resp, err := resty.New().SetTimeout(30 * time.Second).R().
		SetHeader("Accept", "application/pdf").
		SetBody(order).
		Post(rendererURL)
	if err != nil || resp.StatusCode() != 200 {
		logrus.WithField("orderNumber", order.OrderNumber).WithError(err).Error("invoice renderer call failed")
		sendErrorResponse(ctx, http.StatusBadGateway, "Failed to render invoice")
		return
	}

	pdf := resp.Body()
	archiveInvoice(order.OrderNumber, pdf)

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, order.OrderNumber))
	ctx.Data(http.StatusOK, "application/pdf", pdf)
}

func archiveInvoice(orderNumber string, pdf []byte) {
	bucket := initializers.Cfg.InvoiceBucket
	if bucket == "" {
		return
	}

	uploader, err := getAWSUploader()
	if err != nil {
		logrus.WithError(err).Error("failed to configure AWS for invoice archive")
		return
	}

	key := fmt.Sprintf("invoices/%s-%s.pdf", orderNumber, time.Now().Format("20060102150405"))
	_, err = uploader.Upload(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdf),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		logrus.WithField("orderNumber", orderNumber).WithError(err).Error("invoice archive upload failed")
	}
}
