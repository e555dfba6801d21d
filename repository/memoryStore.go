package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nakshstore/naksh-api/models"
)

// MemoryStore is an in-memory implementation of the repository interfaces,
// used by service and handler tests. A transaction is emulated by holding the
// write lock for the whole callback, which gives the same serialization the
// row locks provide in MySQL.
type MemoryStore struct {
	mu          sync.RWMutex
	nextID      uint
	products    map[uint]models.Product
	orders      map[uint]models.Order
	addresses   map[uint]models.Address
	users       map[uint]models.User
	orderNums   map[string]bool
	gatewayRefs map[string]uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:      1,
		products:    make(map[uint]models.Product),
		orders:      make(map[uint]models.Order),
		addresses:   make(map[uint]models.Address),
		users:       make(map[uint]models.User),
		orderNums:   make(map[string]bool),
		gatewayRefs: make(map[string]uint),
	}
}

var (
	_ CatalogReader     = (*MemoryStore)(nil)
	_ CatalogAdmin      = (*MemoryStore)(nil)
	_ OrderRepository   = (*MemoryStore)(nil)
	_ StockLedger       = (*MemoryStore)(nil)
	_ AddressRepository = (*MemoryStore)(nil)
	_ UserRepository    = (*MemoryStore)(nil)
	_ TxManager         = (*MemoryStore)(nil)
)

type memTxKey struct{}

func inTx(ctx context.Context) bool {
	held, ok := ctx.Value(memTxKey{}).(bool)
	return ok && held
}

func (m *MemoryStore) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *MemoryStore) rlock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	m.mu.RLock()
	return m.mu.RUnlock
}

func (m *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(context.WithValue(ctx, memTxKey{}, true))
}

func (m *MemoryStore) allocID() uint {
	id := m.nextID
	m.nextID++
	return id
}

// Catalog

func (m *MemoryStore) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	defer m.rlock(ctx)()
	p, ok := m.products[id]
	if !ok || !p.IsActive {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (m *MemoryStore) CreateProduct(ctx context.Context, product *models.Product) error {
	defer m.lock(ctx)()
	product.ID = m.allocID()
	product.CreatedAt = time.Now().UTC()
	m.products[product.ID] = *product
	return nil
}

func (m *MemoryStore) SetStock(ctx context.Context, productID uint, stock uint) error {
	defer m.lock(ctx)()
	p, ok := m.products[productID]
	if !ok {
		return ErrNotFound
	}
	p.Stock = stock
	m.products[productID] = p
	return nil
}

func (m *MemoryStore) ListProducts(ctx context.Context, search string, page, limit int) ([]models.Product, int64, error) {
	defer m.rlock(ctx)()
	var out []models.Product
	for _, p := range m.products {
		if !p.IsActive {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// Orders

func (m *MemoryStore) Create(ctx context.Context, order *models.Order) error {
	defer m.lock(ctx)()
	if m.orderNums[order.OrderNumber] {
		return ErrDuplicateKey
	}
	order.ID = m.allocID()
	order.CreatedAt = time.Now().UTC()
	for i := range order.Items {
		order.Items[i].ID = m.allocID()
		order.Items[i].OrderID = int(order.ID)
	}
	m.orders[order.ID] = *order
	m.orderNums[order.OrderNumber] = true
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	defer m.rlock(ctx)()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	return &cp, nil
}

func (m *MemoryStore) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	defer m.rlock(ctx)()
	id, ok := m.gatewayRefs[gatewayOrderID]
	if !ok {
		return nil, ErrNotFound
	}
	o := m.orders[id]
	return &o, nil
}

func (m *MemoryStore) SetGatewayOrderID(ctx context.Context, orderID uint, gatewayOrderID string) error {
	defer m.lock(ctx)()
	o, ok := m.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	if o.GatewayOrderID != nil {
		return ErrNotFound
	}
	if _, taken := m.gatewayRefs[gatewayOrderID]; taken {
		return ErrDuplicateKey
	}
	o.GatewayOrderID = &gatewayOrderID
	m.orders[orderID] = o
	m.gatewayRefs[gatewayOrderID] = orderID
	return nil
}

func (m *MemoryStore) TransitionStatus(ctx context.Context, orderID uint, from, to string) (bool, error) {
	defer m.lock(ctx)()
	o, ok := m.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	m.orders[orderID] = o
	return true, nil
}

func (m *MemoryStore) ConfirmWithPayment(ctx context.Context, orderID uint, paymentID string) (bool, error) {
	defer m.lock(ctx)()
	o, ok := m.orders[orderID]
	if !ok || o.Status != models.OrderStatusPending {
		return false, nil
	}
	o.Status = models.OrderStatusConfirmed
	o.PaymentID = &paymentID
	m.orders[orderID] = o
	return true, nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	defer m.rlock(ctx)()
	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == int(userID) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryStore) List(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	defer m.rlock(ctx)()
	var out []models.Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

// Stock ledger

func (m *MemoryStore) ReserveAndDecrement(ctx context.Context, lines []StockLine) error {
	defer m.lock(ctx)()
	merged := mergeLines(lines)
	for _, ln := range merged {
		p, ok := m.products[ln.ProductID]
		if !ok {
			return ErrNotFound
		}
		if int(p.Stock) < ln.Quantity {
			return &OutOfStockError{
				ProductID: ln.ProductID,
				Available: int(p.Stock),
				Requested: ln.Quantity,
			}
		}
	}
	for _, ln := range merged {
		p := m.products[ln.ProductID]
		p.Stock -= uint(ln.Quantity)
		m.products[ln.ProductID] = p
	}
	return nil
}

func (m *MemoryStore) DecrementClamped(ctx context.Context, lines []StockLine) ([]StockShortfall, error) {
	defer m.lock(ctx)()
	var shortfalls []StockShortfall
	for _, ln := range mergeLines(lines) {
		p, ok := m.products[ln.ProductID]
		if !ok {
			return nil, ErrNotFound
		}
		decrement := ln.Quantity
		if int(p.Stock) < decrement {
			decrement = int(p.Stock)
			shortfalls = append(shortfalls, StockShortfall{
				ProductID:   ln.ProductID,
				Requested:   ln.Quantity,
				Decremented: decrement,
			})
		}
		p.Stock -= uint(decrement)
		m.products[ln.ProductID] = p
	}
	return shortfalls, nil
}

// Addresses

func (m *MemoryStore) CreateAddress(ctx context.Context, address *models.Address) error {
	defer m.lock(ctx)()
	address.ID = m.allocID()
	address.CreatedAt = time.Now().UTC()
	m.addresses[address.ID] = *address
	return nil
}

func (m *MemoryStore) ListAddresses(ctx context.Context, userID uint) ([]models.Address, error) {
	defer m.rlock(ctx)()
	var out []models.Address
	for _, a := range m.addresses {
		if a.UserID == int(userID) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetActiveAddress(ctx context.Context, userID uint) (*models.Address, error) {
	defer m.rlock(ctx)()
	var best *models.Address
	for _, a := range m.addresses {
		if a.UserID != int(userID) || !a.IsActive {
			continue
		}
		cp := a
		if best == nil || (cp.IsDefault && !best.IsDefault) || (cp.IsDefault == best.IsDefault && cp.ID > best.ID) {
			best = &cp
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

// Users

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	defer m.lock(ctx)()
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrDuplicateKey
		}
	}
	user.ID = m.allocID()
	user.CreatedAt = time.Now().UTC()
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer m.rlock(ctx)()
	for _, u := range m.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	defer m.rlock(ctx)()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u
	return &cp, nil
}
