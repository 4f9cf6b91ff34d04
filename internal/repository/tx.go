package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/reserveme/internal/model"
)

// TxManager выполняет fn в одной транзакции. Репозитории, вызванные
// с переданным ctx, работают внутри неё.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SlotLocker выполняет fn эксклюзивно по отношению к другим операциям над тем же слотом.
// Операции над разными слотами друг друга не блокируют.
type SlotLocker interface {
	WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error
}

type txKey struct{}

// conn возвращает транзакцию из ctx, если она есть, иначе общий пул.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// GormTxManager — транзакции и блокировки слотов поверх GORM.
type GormTxManager struct {
	db         *gorm.DB
	maxRetries uint64
	backoff    time.Duration
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{
		db:         db,
		maxRetries: 3,
		backoff:    10 * time.Millisecond,
	}
}

// WithinTx открывает транзакцию, а при вложенном вызове переиспользует текущую.
// Ошибки сериализации и дедлоки PostgreSQL повторяются с экспоненциальной паузой.
func (m *GormTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	b := retry.WithMaxRetries(m.maxRetries, retry.NewExponential(m.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey{}, tx))
		})
		if isRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// WithSlotLock берёт строку слота FOR UPDATE на всё время транзакции.
// В SQLite построчных блокировок нет: там пул из одного соединения
// и транзакции и так идут по очереди.
// Отсутствующий слот не ошибка: fn сама решает, что делать.
func (m *GormTxManager) WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error {
	return m.WithinTx(ctx, func(ctx context.Context) error {
		tx := conn(ctx, m.db)
		if tx.Dialector.Name() == "postgres" {
			var ids []uuid.UUID
			err := tx.Model(&model.AvailabilitySlot{}).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", slotID).
				Pluck("id", &ids).Error
			if err != nil {
				return err
			}
		}
		return fn(ctx)
	})
}
