package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nakshstore/naksh-api/models"
	"github.com/nakshstore/naksh-api/repository"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidDiscount = errors.New("discount exceeds order total")
)

var hundred = decimal.NewFromInt(100)

type LineQuote struct {
	ProductID  uint            `json:"productId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	BaseAmount decimal.Decimal `json:"baseAmount"`
	GSTAmount  decimal.Decimal `json:"gstAmount"`
	LineTotal  decimal.Decimal `json:"lineTotal"`
}

type CartQuote struct {
	Lines      []LineQuote     `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	GSTTotal   decimal.Decimal `json:"gstTotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	FinalTotal decimal.Decimal `json:"finalTotal"`
}

// ShippingPolicy rates shipping for an order subtotal. The store ships free
// regardless of distance or weight; swap the policy to change that.
type ShippingPolicy func(subtotal decimal.Decimal) decimal.Decimal

func FlatFreeShipping(decimal.Decimal) decimal.Decimal { return decimal.Zero }

// PricingService computes frozen order totals from a cart manifest. The stock
// comparison here is a pre-check against a snapshot; the stock ledger enforces
// the real limit at confirmation time.
type PricingService struct {
	catalog  repository.CatalogReader
	shipping ShippingPolicy
}

func NewPricingService(catalog repository.CatalogReader) *PricingService {
	return &PricingService{catalog: catalog, shipping: FlatFreeShipping}
}

func (s *PricingService) PriceCart(ctx context.Context, lines []models.CartLine, discount decimal.Decimal) (*CartQuote, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	quote := &CartQuote{
		Subtotal: decimal.Zero,
		Discount: discount.Round(2),
		GSTTotal: decimal.Zero,
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, ErrInvalidQuantity)
		}

		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("product %d: %w", line.ProductID, ErrProductNotFound)
			}
			return nil, err
		}
		if int(product.Stock) < line.Quantity {
			return nil, &repository.OutOfStockError{
				ProductID: line.ProductID,
				Available: int(product.Stock),
				Requested: line.Quantity,
			}
		}

		// Each line is rounded to 2 decimal places before summation so the
		// displayed subtotal always equals the sum of displayed lines.
		base := product.SellingPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		gst := base.Mul(product.GSTPercentage).Div(hundred).Round(2)

		quote.Lines = append(quote.Lines, LineQuote{
			ProductID:  product.ID,
			Name:       product.Name,
			Quantity:   line.Quantity,
			UnitPrice:  product.SellingPrice,
			BaseAmount: base,
			GSTAmount:  gst,
			LineTotal:  base.Add(gst),
		})
		quote.Subtotal = quote.Subtotal.Add(base)
		quote.GSTTotal = quote.GSTTotal.Add(gst)
	}

	quote.Shipping = s.shipping(quote.Subtotal)
	quote.FinalTotal = quote.Subtotal.Sub(quote.Discount).Add(quote.GSTTotal).Add(quote.Shipping)
	if quote.FinalTotal.IsNegative() {
		return nil, ErrInvalidDiscount
	}
	return quote, nil
}
