package repository

import (
	"context"
	"errors"

	"github.com/nakshstore/naksh-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements every repository interface on top of a gorm MySQL
// connection. Correctness under concurrent checkouts comes from database
// transactions and row locks, not application mutexes.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var (
	_ CatalogReader     = (*GormStore)(nil)
	_ CatalogAdmin      = (*GormStore)(nil)
	_ OrderRepository   = (*GormStore)(nil)
	_ StockLedger       = (*GormStore)(nil)
	_ AddressRepository = (*GormStore)(nil)
	_ UserRepository    = (*GormStore)(nil)
	_ TxManager         = (*GormStore)(nil)
)

type txKey struct{}

func txFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok
}

// conn returns the transaction carried by ctx, or the base connection.
func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

func (s *GormStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return err
	}
}

// Catalog

func (s *GormStore) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.conn(ctx).Where("is_active = ?", true).First(&product, id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (s *GormStore) CreateProduct(ctx context.Context, product *models.Product) error {
	return translate(s.conn(ctx).Create(product).Error)
}

func (s *GormStore) SetStock(ctx context.Context, productID uint, stock uint) error {
	result := s.conn(ctx).Model(&models.Product{}).Where("id = ?", productID).Update("stock", stock)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListProducts(ctx context.Context, search string, page, limit int) ([]models.Product, int64, error) {
	query := s.conn(ctx).Model(&models.Product{}).Where("is_active = ?", true)
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	offset := (page - 1) * limit
	if err := query.Limit(limit).Offset(offset).Order("created_at desc").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

// Orders

func (s *GormStore) Create(ctx context.Context, order *models.Order) error {
	return s.WithTransaction(ctx, func(ctx context.Context) error {
		return translate(s.conn(ctx).Create(order).Error)
	})
}

func (s *GormStore) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.conn(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *GormStore) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	err := s.conn(ctx).Preload("Items").Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *GormStore) SetGatewayOrderID(ctx context.Context, orderID uint, gatewayOrderID string) error {
	result := s.conn(ctx).Model(&models.Order{}).
		Where("id = ? AND gateway_order_id IS NULL", orderID).
		Update("gateway_order_id", gatewayOrderID)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) TransitionStatus(ctx context.Context, orderID uint, from, to string) (bool, error) {
	result := s.conn(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	return result.RowsAffected > 0, translate(result.Error)
}

func (s *GormStore) ConfirmWithPayment(ctx context.Context, orderID uint, paymentID string) (bool, error) {
	result := s.conn(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(map[string]any{
			"status":     models.OrderStatusConfirmed,
			"payment_id": paymentID,
		})
	return result.RowsAffected > 0, translate(result.Error)
}

func (s *GormStore) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.conn(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

func (s *GormStore) List(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	var count int64
	if err := s.conn(ctx).Model(&models.Order{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	offset := (page - 1) * limit
	err := s.conn(ctx).Preload("Items").
		Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

// Stock ledger

func (s *GormStore) ReserveAndDecrement(ctx context.Context, lines []StockLine) error {
	return s.WithTransaction(ctx, func(ctx context.Context) error {
		db := s.conn(ctx)
		merged := mergeLines(lines)

		// Lock every row first, in ascending id order, so two orders that
		// share products cannot deadlock by locking in opposite orders.
		for _, ln := range merged {
			var product models.Product
			err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, ln.ProductID).Error
			if err != nil {
				return translate(err)
			}
			if int(product.Stock) < ln.Quantity {
				return &OutOfStockError{
					ProductID: ln.ProductID,
					Available: int(product.Stock),
					Requested: ln.Quantity,
				}
			}
		}

		for _, ln := range merged {
			err := db.Model(&models.Product{}).
				Where("id = ?", ln.ProductID).
				UpdateColumn("stock", gorm.Expr("stock - ?", ln.Quantity)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) DecrementClamped(ctx context.Context, lines []StockLine) ([]StockShortfall, error) {
	var shortfalls []StockShortfall
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		db := s.conn(ctx)
		for _, ln := range mergeLines(lines) {
			var product models.Product
			err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, ln.ProductID).Error
			if err != nil {
				return translate(err)
			}

			decrement := ln.Quantity
			if int(product.Stock) < decrement {
				decrement = int(product.Stock)
				shortfalls = append(shortfalls, StockShortfall{
					ProductID:   ln.ProductID,
					Requested:   ln.Quantity,
					Decremented: decrement,
				})
			}
			err = db.Model(&models.Product{}).
				Where("id = ?", ln.ProductID).
				UpdateColumn("stock", product.Stock-uint(decrement)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shortfalls, nil
}

// Addresses

func (s *GormStore) CreateAddress(ctx context.Context, address *models.Address) error {
	return translate(s.conn(ctx).Create(address).Error)
}

func (s *GormStore) ListAddresses(ctx context.Context, userID uint) ([]models.Address, error) {
	var addresses []models.Address
	err := s.conn(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&addresses).Error
	return addresses, err
}

func (s *GormStore) GetActiveAddress(ctx context.Context, userID uint) (*models.Address, error) {
	var address models.Address
	err := s.conn(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("is_default desc, created_at desc").
		First(&address).Error
	if err != nil {
		return nil, translate(err)
	}
	return &address, nil
}

// Users

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.conn(ctx).Create(user).Error)
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
