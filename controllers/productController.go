package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nakshstore/naksh-api/models"
	"github.com/nakshstore/naksh-api/repository"
)

func GetProducts(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "15"))
	if page < 1 {
		page = 1
	}

	products, count, err := deps.CatalogAdmin.ListProducts(ctx.Request.Context(), ctx.Query("search"), page, limit)
	if err != nil {
		sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to fetch products")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"products": products,
		"metadata": gin.H{
			"total": count,
			"page":  page,
			"limit": limit,
		},
	})
}

func GetProduct(ctx *gin.Context) {
	productID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := deps.Catalog.GetProduct(ctx.Request.Context(), uint(productID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, "Product not found")
			return
		}
		sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to retrieve product")
		return
	}

	ctx.JSON(http.StatusOK, product)
}

func CreateProduct(ctx *gin.Context) {
	var product models.Product
	if err := ctx.ShouldBindJSON(&product); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}
	product.IsActive = true

	if err := deps.CatalogAdmin.CreateProduct(ctx.Request.Context(), &product); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			sendErrorResponse(ctx, http.StatusConflict, "Product with this slug already exists")
			return
		}
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to create product")
		return
	}

	ctx.JSON(http.StatusCreated, product)
}

// UpdateProductStock is the admin restock path. Customer checkouts never set
// stock directly; they go through the stock ledger.
func UpdateProductStock(ctx *gin.Context) {
	productID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var stockData struct {
		Stock *uint `json:"stock" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&stockData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := deps.CatalogAdmin.SetStock(ctx.Request.Context(), uint(productID), *stockData.Stock); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, "Product not found")
			return
		}
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to update stock")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Stock updated successfully."})
}
