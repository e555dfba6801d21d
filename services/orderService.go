package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nakshstore/naksh-api/models"
	"github.com/nakshstore/naksh-api/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

var (
	ErrNoAddress      = errors.New("no active shipping address")
	ErrOrderNotFound  = errors.New("order not found")
	ErrNotCancellable = errors.New("order can no longer be cancelled")
)

const orderNumberAttempts = 3

// OversellPolicy decides what happens when a paid order hits insufficient
// stock inside the confirmation transaction. The default never fails a paid
// order: it clamps the affected stock to zero and logs the shortfall for
// manual reconciliation. A refund-and-fail strategy can be swapped in here
// without touching the state machine.
type OversellPolicy func(ctx context.Context, ledger repository.StockLedger, order *models.Order, lines []repository.StockLine) error

func ClampAndLog(ctx context.Context, ledger repository.StockLedger, order *models.Order, lines []repository.StockLine) error {
	shortfalls, err := ledger.DecrementClamped(ctx, lines)
	if err != nil {
		return err
	}
	for _, sf := range shortfalls {
		logrus.WithFields(logrus.Fields{
			"orderNumber": order.OrderNumber,
			"productId":   sf.ProductID,
			"requested":   sf.Requested,
			"decremented": sf.Decremented,
		}).Warn("paid order oversold, stock clamped to zero")
	}
	return nil
}

type CheckoutResult struct {
	Order          *models.Order
	Quote          *CartQuote
	GatewayOrderID string
	// AmountDue is in minor currency units.
	AmountDue int64
	Currency  string
}

// OrderService is the state machine coordinating pricing, persistence, the
// payment gateway and the stock ledger across create -> pay -> confirm.
type OrderService struct {
	orders    repository.OrderRepository
	ledger    repository.StockLedger
	addresses repository.AddressRepository
	pricing   *PricingService
	gateway   PaymentGateway
	tx        repository.TxManager
	currency  string
	oversell  OversellPolicy

	// Notify is called best-effort after an order is confirmed.
	Notify func(order *models.Order)
}

func NewOrderService(
	orders repository.OrderRepository,
	ledger repository.StockLedger,
	addresses repository.AddressRepository,
	pricing *PricingService,
	gateway PaymentGateway,
	tx repository.TxManager,
	currency string,
) *OrderService {
	return &OrderService{
		orders:    orders,
		ledger:    ledger,
		addresses: addresses,
		pricing:   pricing,
		gateway:   gateway,
		tx:        tx,
		currency:  currency,
		oversell:  ClampAndLog,
	}
}

// Checkout prices the cart, persists the PENDING order with its items in one
// transaction and creates the payment intent. Stock is not decremented here;
// it is only reserved logically by the pricing pre-check.
func (s *OrderService) Checkout(ctx context.Context, userID uint, lines []models.CartLine) (*CheckoutResult, error) {
	address, err := s.addresses.GetActiveAddress(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoAddress
		}
		return nil, err
	}

	quote, err := s.pricing.PriceCart(ctx, lines, decimal.Zero)
	if err != nil {
		return nil, err
	}

	breakdown, err := json.Marshal(quote)
	if err != nil {
		return nil, err
	}

	snapshot := address.Snapshot()
	order := &models.Order{
		UserID:          int(userID),
		Status:          models.OrderStatusPending,
		TotalAmount:     quote.Subtotal,
		DiscountAmount:  quote.Discount,
		GSTAmount:       quote.GSTTotal,
		ShippingAmount:  quote.Shipping,
		FinalAmount:     quote.FinalTotal,
		ShippingAddress: snapshot,
		BillingAddress:  snapshot,
		Breakdown:       datatypes.JSON(breakdown),
	}
	for _, lq := range quote.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:      int(lq.ProductID),
			Quantity:       lq.Quantity,
			Price:          lq.UnitPrice,
			DiscountAmount: decimal.Zero,
			GSTAmount:      lq.GSTAmount,
			FinalPrice:     lq.LineTotal,
		})
	}

	if err := s.createWithUniqueNumber(ctx, order); err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, toMinorUnits(quote.FinalTotal), s.currency, order.OrderNumber)
	if err != nil {
		// No gateway id was persisted; the order stays PENDING and inert, and
		// a retried checkout creates a fresh, independent order.
		logrus.WithFields(logrus.Fields{
			"orderNumber": order.OrderNumber,
			"orderId":     order.ID,
		}).WithError(err).Error("payment intent creation failed")
		return nil, err
	}

	if err := s.orders.SetGatewayOrderID(ctx, order.ID, intent.GatewayOrderID); err != nil {
		return nil, err
	}
	order.GatewayOrderID = &intent.GatewayOrderID

	return &CheckoutResult{
		Order:          order,
		Quote:          quote,
		GatewayOrderID: intent.GatewayOrderID,
		AmountDue:      intent.Amount,
		Currency:       intent.Currency,
	}, nil
}

// createWithUniqueNumber retries order creation on an order-number collision.
// Uniqueness is enforced by the storage constraint, not by check-then-insert.
func (s *OrderService) createWithUniqueNumber(ctx context.Context, order *models.Order) error {
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = newOrderNumber()
		err = s.orders.Create(ctx, order)
		if !errors.Is(err, repository.ErrDuplicateKey) {
			return err
		}
	}
	return err
}

func newOrderNumber() string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// VerifyPayment drives the PENDING -> CONFIRMED / FAILED transition from a
// gateway callback payload. The order is resolved by the gateway's order id
// only; a client-supplied internal id is never trusted here.
//
// Verifying the same payload twice is a no-op that returns the order's current
// state: transitions out of PENDING are one-shot and stock is never
// decremented twice. Status change and stock decrement commit in the same
// transaction, so a crash between them leaves the order PENDING and the
// client may safely re-submit.
func (s *OrderService) VerifyPayment(ctx context.Context, req models.VerifyPaymentRequest) (*models.Order, error) {
	order, err := s.orders.GetByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if models.IsTerminal(order.Status) {
		return order, nil
	}

	if err := s.gateway.VerifySignature(req.GatewayOrderID, req.PaymentID, req.Signature); err != nil {
		failed, _, terr := s.failOrder(ctx, order.ID)
		if terr != nil {
			return nil, terr
		}
		logrus.WithFields(logrus.Fields{
			"orderNumber":    order.OrderNumber,
			"gatewayOrderId": req.GatewayOrderID,
			"paymentId":      req.PaymentID,
		}).Warn("payment signature verification failed")
		return failed, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		confirmed, err := s.orders.ConfirmWithPayment(ctx, order.ID, req.PaymentID)
		if err != nil {
			return err
		}
		if !confirmed {
			// Lost a race with a concurrent verification; nothing to do.
			return nil
		}
		if !req.ShouldUpdateStock() {
			return nil
		}

		lines := stockLines(order.Items)
		err = s.ledger.ReserveAndDecrement(ctx, lines)
		var oos *repository.OutOfStockError
		if errors.As(err, &oos) {
			return s.oversell(ctx, s.ledger, order, lines)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	confirmed, err := s.orders.GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if confirmed.Status == models.OrderStatusConfirmed && s.Notify != nil {
		s.Notify(confirmed)
	}
	return confirmed, nil
}

func (s *OrderService) failOrder(ctx context.Context, orderID uint) (*models.Order, bool, error) {
	transitioned, err := s.orders.TransitionStatus(ctx, orderID, models.OrderStatusPending, models.OrderStatusFailed)
	if err != nil {
		return nil, false, err
	}
	order, err := s.orders.GetByID(ctx, orderID)
	return order, transitioned, err
}

// Cancel is owner-only and valid from PENDING alone. No inventory effect:
// nothing was reserved yet.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != int(userID) {
		return nil, ErrOrderNotFound
	}

	cancelled, err := s.orders.TransitionStatus(ctx, orderID, models.OrderStatusPending, models.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !cancelled {
		return nil, ErrNotCancellable
	}
	return s.orders.GetByID(ctx, orderID)
}

func stockLines(items []models.OrderItem) []repository.StockLine {
	lines := make([]repository.StockLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, repository.StockLine{
			ProductID: uint(item.ProductID),
			Quantity:  item.Quantity,
		})
	}
	return lines
}
