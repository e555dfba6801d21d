package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/nakshstore/naksh-api/models"
)

var (
	ErrNotFound     = errors.New("repository: not found")
	ErrDuplicateKey = errors.New("repository: duplicate key")
)

// StockLine is one product+quantity pair handed to the stock ledger.
type StockLine struct {
	ProductID uint
	Quantity  int
}

// OutOfStockError reports the first line of a batch that could not be
// satisfied. The whole batch is rolled back when it is returned.
type OutOfStockError struct {
	ProductID uint
	Available int
	Requested int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %d out of stock: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// StockShortfall records how far short a clamped decrement fell, for manual
// reconciliation of paid-but-oversold orders.
type StockShortfall struct {
	ProductID   uint
	Requested   int
	Decremented int
}

type CatalogReader interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
}

type CatalogAdmin interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	SetStock(ctx context.Context, productID uint, stock uint) error
	ListProducts(ctx context.Context, search string, page, limit int) ([]models.Product, int64, error)
}

type OrderRepository interface {
	// Create persists the order header and all items atomically.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	SetGatewayOrderID(ctx context.Context, orderID uint, gatewayOrderID string) error
	// TransitionStatus performs a guarded single-shot transition
	// (WHERE status = from) and reports whether a row was updated.
	TransitionStatus(ctx context.Context, orderID uint, from, to string) (bool, error)
	// ConfirmWithPayment transitions PENDING -> CONFIRMED and records the
	// gateway payment id in the same guarded update.
	ConfirmWithPayment(ctx context.Context, orderID uint, paymentID string) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
	List(ctx context.Context, page, limit int) ([]models.Order, int64, error)
}

// StockLedger owns every mutation of Product.Stock.
type StockLedger interface {
	// ReserveAndDecrement atomically checks and decrements stock for the whole
	// batch. Row locks are taken in ascending product-id order. On any
	// insufficient line it returns *OutOfStockError and no row is modified.
	ReserveAndDecrement(ctx context.Context, lines []StockLine) error
	// DecrementClamped decrements each line as far as stock allows, flooring
	// at zero, and reports the shortfalls. Used by the oversell policy.
	DecrementClamped(ctx context.Context, lines []StockLine) ([]StockShortfall, error)
}

type AddressRepository interface {
	CreateAddress(ctx context.Context, address *models.Address) error
	ListAddresses(ctx context.Context, userID uint) ([]models.Address, error)
	// GetActiveAddress resolves the user's default active address, falling
	// back to the most recent active one.
	GetActiveAddress(ctx context.Context, userID uint) (*models.Address, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// TxManager runs fn inside one storage transaction; repositories called with
// the derived context participate in it.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// mergeLines collapses duplicate product ids and returns the batch sorted by
// ascending product id, the canonical lock-acquisition order.
func mergeLines(lines []StockLine) []StockLine {
	byID := make(map[uint]int, len(lines))
	for _, ln := range lines {
		byID[ln.ProductID] += ln.Quantity
	}
	out := make([]StockLine, 0, len(byID))
	for id, qty := range byID {
		out = append(out, StockLine{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
