package repositories

import (
	"context"
	"time"

	"starter-server/entities"
)

type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	List(ctx context.Context, q ListQuery) ([]entities.User, int64, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, status string) (int64, error)
	CountByRole(ctx context.Context, role, status string) (int64, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *entities.Session) error
	GetByID(ctx context.Context, id string) (*entities.Session, error)
	Revoke(ctx context.Context, id string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID, exceptID string, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *entities.Customer) error
	GetByID(ctx context.Context, id string) (*entities.Customer, error)
	List(ctx context.Context, q ListQuery) ([]entities.Customer, int64, error)
	Update(ctx context.Context, customer *entities.Customer) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, status string) (int64, error)
	SumMRR(ctx context.Context) (int64, error)
}

type SettingsRepository interface {
	// GetByUserID returns nil, nil when the user has no stored settings.
	GetByUserID(ctx context.Context, userID string) (*entities.Settings, error)
	Upsert(ctx context.Context, settings *entities.Settings) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *entities.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]entities.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entities.Invoice) error
	GetByID(ctx context.Context, id string) (*entities.Invoice, error)
	List(ctx context.Context, q ListQuery, customerID string) ([]entities.Invoice, int64, error)
	// Transition applies updates only while the invoice is in one of the
	// from statuses and reports whether a row changed.
	Transition(ctx context.Context, id string, from []string, updates map[string]interface{}) (bool, error)
	SumByStatus(ctx context.Context, status string) (int64, error)
}

type UsageRepository interface {
	BulkInsert(ctx context.Context, records []entities.UsageRecord) error
	Summary(ctx context.Context, userID string, since time.Time) ([]entities.UsageTotal, error)
	Daily(ctx context.Context, userID, metric string, since time.Time) ([]entities.UsagePoint, error)
	Total(ctx context.Context, metric string, since time.Time) (int64, error)
	List(ctx context.Context, since time.Time, limit int) ([]entities.UsageRecord, error)
}

type UploadRepository interface {
	Create(ctx context.Context, upload *entities.Upload) error
	GetByID(ctx context.Context, id string) (*entities.Upload, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]entities.Upload, int64, error)
	Delete(ctx context.Context, id string) error
}
