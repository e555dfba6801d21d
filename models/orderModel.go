package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusFailed    = "FAILED"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
)

type Order struct {
	gorm.Model
	OrderNumber string `json:"orderNumber" gorm:"size:50;uniqueIndex"`
	UserID      int    `json:"userId" gorm:"index"`
	Status      string `json:"status" gorm:"size:20"`

	TotalAmount    decimal.Decimal `json:"totalAmount" gorm:"type:decimal(10,2)"`
	DiscountAmount decimal.Decimal `json:"discountAmount" gorm:"type:decimal(10,2)"`
	GSTAmount      decimal.Decimal `json:"gstAmount" gorm:"type:decimal(10,2)"`
	ShippingAmount decimal.Decimal `json:"shippingAmount" gorm:"type:decimal(10,2)"`
	FinalAmount    decimal.Decimal `json:"finalAmount" gorm:"type:decimal(10,2)"`

	// Frozen text snapshots, never a live address reference.
	ShippingAddress string `json:"shippingAddress" gorm:"type:text"`
	BillingAddress  string `json:"billingAddress" gorm:"type:text"`

	// GatewayOrderID is set at most once, when the payment intent is created.
	// PaymentID is set at most once, on the transition to CONFIRMED.
	GatewayOrderID *string `json:"gatewayOrderId" gorm:"size:64;uniqueIndex"`
	PaymentID      *string `json:"paymentId" gorm:"size:64"`

	// Breakdown holds the pricing snapshot shown to the customer at checkout.
	Breakdown datatypes.JSON `json:"breakdown"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

type OrderItem struct {
	gorm.Model
	OrderID        int             `json:"orderId" gorm:"index"`
	ProductID      int             `json:"productId"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	DiscountAmount decimal.Decimal `json:"discountAmount" gorm:"type:decimal(10,2)"`
	GSTAmount      decimal.Decimal `json:"gstAmount" gorm:"type:decimal(10,2)"`
	FinalPrice     decimal.Decimal `json:"finalPrice" gorm:"type:decimal(10,2)"`
}

// IsTerminal reports whether no further payment-lifecycle transition is
// allowed from the given status. CONFIRMED still advances through the
// shipping states, but never back into the payment pipeline.
func IsTerminal(status string) bool {
	return status != OrderStatusPending
}

type CartLine struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

type CheckoutRequest struct {
	Items []CartLine `json:"items" binding:"required"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID string `json:"gatewayOrderId" binding:"required"`
	PaymentID      string `json:"paymentId" binding:"required"`
	Signature      string `json:"signature" binding:"required"`
	// UpdateStock defaults to true; callers may suppress the decrement for
	// manually reconciled orders.
	UpdateStock *bool `json:"updateStock"`
}

func (r VerifyPaymentRequest) ShouldUpdateStock() bool {
	return r.UpdateStock == nil || *r.UpdateStock
}
