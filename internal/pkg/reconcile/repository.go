package reconcile

import (
	"errors"
	"time"

	"github.com/ManuelReschke/PayFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides ledger and identity access used by the reconcile
// service. The ledger is the single source of truth for access decisions;
// every status transition goes through these methods.
type Repository interface {
	GetSubscriptionByUserID(userID uint) (*models.Subscription, error)
	GetSubscriptionByGatewayID(gatewaySubscriptionID string) (*models.Subscription, error)
	FindUserByID(userID uint) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
	// CancelSubscription flips an active row to cancelled in one conditional
	// update. It reports false when no active row matched, which doubles as
	// the concurrency guard for racing cancels.
	CancelSubscription(userID uint, endsAt time.Time) (bool, error)
	ExtendSubscription(userID uint, newEnd time.Time) (bool, error)
	UpsertSubscription(sub *models.Subscription) error
	MarkCancelledByGatewayID(gatewaySubscriptionID string, cancelledAt time.Time) (bool, error)
	CreatePaymentTransaction(txn *models.PaymentTransaction) error
	ListPaymentTransactionsByUser(userID uint, limit int) ([]models.PaymentTransaction, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a reconcile repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetSubscriptionByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) GetSubscriptionByGatewayID(gatewaySubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("gateway_subscription_id = ?", gatewaySubscriptionID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) FindUserByID(userID uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) CancelSubscription(userID uint, endsAt time.Time) (bool, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"status":               models.SubscriptionStatusCancelled,
			"subscription_ends_at": endsAt,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) ExtendSubscription(userID uint, newEnd time.Time) (bool, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"status":               models.SubscriptionStatusActive,
			"subscription_ends_at": newEnd,
			"next_billing_date":    newEnd,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) UpsertSubscription(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"gateway_subscription_id",
			"status",
			"plan_type",
			"billing_cycle",
			"subscription_started_at",
			"next_billing_date",
			"subscription_ends_at",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("user_id = ?", sub.UserID).First(sub).Error
}

func (r *gormRepository) MarkCancelledByGatewayID(gatewaySubscriptionID string, cancelledAt time.Time) (bool, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("gateway_subscription_id = ? AND status <> ?", gatewaySubscriptionID, models.SubscriptionStatusCancelled).
		Updates(map[string]interface{}{
			"status":               models.SubscriptionStatusCancelled,
			"subscription_ends_at": cancelledAt,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) CreatePaymentTransaction(txn *models.PaymentTransaction) error {
	return r.db.Create(txn).Error
}

func (r *gormRepository) ListPaymentTransactionsByUser(userID uint, limit int) ([]models.PaymentTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	var txns []models.PaymentTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}
