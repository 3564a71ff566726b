package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCartEntryNotFound = errors.New("cart entry not found")
	ErrQuantityLimit     = errors.New("cart entry quantity limit reached")
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("user with this email already exists")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
}

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

type CatalogRepository interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

type ProductWriter interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	RetireProduct(ctx context.Context, id int64) error
}

type CartRepository interface {
	AddOrIncrement(ctx context.Context, userID, productID int64) (*domain.CartEntry, error)
	SetQuantity(ctx context.Context, userID, entryID int64, quantity int) error
	RemoveProduct(ctx context.Context, userID, productID int64) error
	ListLines(ctx context.Context, userID int64) ([]domain.CartLine, error)
	Clear(ctx context.Context, userID int64) (int64, error)
}

type PurchaseRepository interface {
	InsertPurchases(ctx context.Context, records []*domain.PurchaseRecord) error
	ListPurchases(ctx context.Context, userID int64) ([]*domain.PurchaseRecord, error)
	CountPurchases(ctx context.Context, userID int64) (int, error)
}

type AccountRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

type OutboxRepository interface {
	InsertEvent(ctx context.Context, event *OutboxEvent) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

// Tx exposes the repositories bound to one open database transaction.
type Tx interface {
	Carts() CartRepository
	Purchases() PurchaseRepository
	Catalog() CatalogRepository
	Outbox() OutboxRepository
}

// TxRunner runs fn inside a transaction that holds the lock of userID.
// The transaction commits when fn returns nil and rolls back otherwise.
type TxRunner interface {
	WithUserTx(ctx context.Context, userID int64, fn func(tx Tx) error) error
}
