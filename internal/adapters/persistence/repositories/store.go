package repositories

import (
	"context"
	"errors"
	"fmt"

	"cmms-engine/internal/core/domain"
	"cmms-engine/internal/core/ports"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MySQL error numbers that mean a transaction lost a race.
const (
	mysqlDeadlock        = 1213
	mysqlLockWaitTimeout = 1205
	mysqlDuplicateEntry  = 1062
)

// Store is the gorm-backed unit of work. Inside WithinTx every FindByID of
// a lockable entity is issued with SELECT ... FOR UPDATE.
type Store struct {
	db   *gorm.DB
	lock bool
}

var _ ports.UnitOfWork = (*Store)(nil)

// NewStore creates a new store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithinTx implements ports.UnitOfWork.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Store{db: tx, lock: true})
	})
	return translate(err)
}

func (s *Store) WorkOrders() ports.WorkOrderRepository {
	return &WorkOrderRepository{db: s.db, lock: s.lock}
}

func (s *Store) WorkOrderParts() ports.WorkOrderPartRepository {
	return &WorkOrderPartRepository{db: s.db, lock: s.lock}
}

func (s *Store) Schedules() ports.ScheduleRepository {
	return &ScheduleRepository{db: s.db, lock: s.lock}
}

func (s *Store) Parts() ports.PartRepository {
	return &PartRepository{db: s.db, lock: s.lock}
}

func (s *Store) StockMovements() ports.StockMovementRepository {
	return &StockMovementRepository{db: s.db}
}

func (s *Store) PartRequests() ports.PartRequestRepository {
	return &PartRequestRepository{db: s.db}
}

func (s *Store) History() ports.HistoryRepository {
	return &HistoryRepository{db: s.db}
}

func (s *Store) Assets() ports.AssetRepository {
	return &AssetRepository{db: s.db}
}

func (s *Store) Technicians() ports.TechnicianRepository {
	return &TechnicianRepository{db: s.db}
}

// forUpdate adds a row lock when running inside a transaction.
func forUpdate(db *gorm.DB, lock bool) *gorm.DB {
	if lock {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// mapError converts driver errors for one entity into domain errors.
func mapError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(entity, id)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return domain.Conflict(entity, id)
	}
	if mapped := translate(err); mapped != err {
		return mapped
	}
	return fmt.Errorf("%s %s: %w", entity, id, err)
}

// translate maps deadlocks and lock wait timeouts to domain.ErrConflict so
// the services retry the unit of work. Other errors pass through.
func translate(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDeadlock, mysqlLockWaitTimeout:
			return fmt.Errorf("%w: %s", domain.ErrConflict, myErr.Message)
		}
	}
	return err
}

// guardedUpdate writes every column of row where the stored version still
// equals version. Zero rows affected means someone else won the race.
func guardedUpdate(ctx context.Context, db *gorm.DB, row interface{}, version int, entity, id string) error {
	res := db.WithContext(ctx).Model(row).
		Where("version = ?", version).
		Select("*").
		Updates(row)
	if res.Error != nil {
		return mapError(res.Error, entity, id)
	}
	if res.RowsAffected == 0 {
		return domain.Conflict(entity, id)
	}
	return nil
}
