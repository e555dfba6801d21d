package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nakshstore/naksh-api/models"
	"github.com/sirupsen/logrus"
)

func CreateAddress(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	var address models.Address
	if err := ctx.ShouldBindJSON(&address); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}
	address.UserID = int(userID)
	address.IsActive = true

	// The user's first address becomes the default, as an explicit step here
	// rather than a hidden persistence hook.
	existing, err := deps.Addresses.ListAddresses(ctx.Request.Context(), userID)
	if err != nil {
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to create address")
		return
	}
	if len(existing) == 0 {
		address.IsDefault = true
	}

	if err := deps.Addresses.CreateAddress(ctx.Request.Context(), &address); err != nil {
		logrus.WithError(err).Error("address creation failed")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to create address")
		return
	}

	sendJSONResponse(ctx, http.StatusCreated, gin.H{"address": address})
}

func GetAddresses(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	addresses, err := deps.Addresses.ListAddresses(ctx.Request.Context(), userID)
	if err != nil {
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch addresses")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"addresses": addresses})
}
