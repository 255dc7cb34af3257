package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"xiaodiyanxuan-backend/internal/models"
)

func setupRepoTest(t *testing.T) (*gorm.DB, OrderRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	db.Migrator().DropTable(&models.Order{}, &models.OrderActivityLog{})
	if err := db.AutoMigrate(&models.Order{}, &models.OrderActivityLog{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db, NewOrderRepository(db)
}

func TestLockForUpdateRendersRowLock(t *testing.T) {
	// DryRun 的 postgres 会话只构建 SQL，不建立连接
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=app dbname=app"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("failed to open dry-run session: %v", err)
	}

	var order models.Order
	stmt := lockForUpdate(db).Limit(1).Find(&order, "id = ?", "x").Statement
	assert.Contains(t, stmt.SQL.String(), "FOR UPDATE")
}

func TestTransitionAppendsLogAtomically(t *testing.T) {
	db, repo := setupRepoTest(t)

	order := &models.Order{ID: "o1", OrderNo: "XD001", UserID: 1, TotalAmount: 100, Status: models.OrderStatusPendingPayment}
	assert.NoError(t, db.Create(order).Error)

	updated, err := repo.Transition(context.Background(), "o1", func(o *models.Order) (*models.OrderActivityLog, error) {
		o.Status = models.OrderStatusCancelled
		return &models.OrderActivityLog{Action: "order_cancelled", Operator: "tester"}, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)

	var logs []models.OrderActivityLog
	db.Where("order_id = ?", "o1").Find(&logs)
	assert.Len(t, logs, 1)
	assert.Equal(t, "order_cancelled", logs[0].Action)
	assert.False(t, logs[0].CreatedAt.IsZero())
}

func TestTransitionRollsBackOnError(t *testing.T) {
	db, repo := setupRepoTest(t)

	order := &models.Order{ID: "o2", OrderNo: "XD002", UserID: 1, TotalAmount: 100, Status: models.OrderStatusPendingPayment}
	assert.NoError(t, db.Create(order).Error)

	guardErr := errors.New("guard failed")
	_, err := repo.Transition(context.Background(), "o2", func(o *models.Order) (*models.OrderActivityLog, error) {
		o.Status = models.OrderStatusCancelled
		return nil, guardErr
	})
	assert.ErrorIs(t, err, guardErr)

	var reloaded models.Order
	assert.NoError(t, db.First(&reloaded, "id = ?", "o2").Error)
	assert.Equal(t, models.OrderStatusPendingPayment, reloaded.Status)

	var count int64
	db.Model(&models.OrderActivityLog{}).Where("order_id = ?", "o2").Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestTransitionNotFound(t *testing.T) {
	_, repo := setupRepoTest(t)

	_, err := repo.Transition(context.Background(), "missing", func(o *models.Order) (*models.OrderActivityLog, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByIDExcludesSoftDeleted(t *testing.T) {
	db, repo := setupRepoTest(t)

	order := &models.Order{ID: "o3", OrderNo: "XD003", UserID: 1, TotalAmount: 100, Status: models.OrderStatusPendingPayment, IsDeleted: true}
	assert.NoError(t, db.Create(order).Error)

	_, err := repo.FindByID(context.Background(), "o3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByIDOrdersActivityLogs(t *testing.T) {
	db, repo := setupRepoTest(t)

	order := &models.Order{ID: "o4", OrderNo: "XD004", UserID: 1, TotalAmount: 100, Status: models.OrderStatusPendingPayment}
	assert.NoError(t, db.Create(order).Error)
	assert.NoError(t, db.Create(&models.OrderActivityLog{OrderID: "o4", Action: "first"}).Error)
	assert.NoError(t, db.Create(&models.OrderActivityLog{OrderID: "o4", Action: "second"}).Error)

	found, err := repo.FindByID(context.Background(), "o4")
	assert.NoError(t, err)
	assert.Len(t, found.ActivityLogs, 2)
	assert.Equal(t, "first", found.ActivityLogs[0].Action)
	assert.Equal(t, "second", found.ActivityLogs[1].Action)
}

func TestFindCommissionCandidatesExcludesSupplierTransfer(t *testing.T) {
	db, repo := setupRepoTest(t)

	assert.NoError(t, db.Create(&models.Order{ID: "c1", OrderNo: "XD011", UserID: 1, TotalAmount: 100, Status: models.OrderStatusCompleted, SettlementMode: models.SettlementModeCommission}).Error)
	assert.NoError(t, db.Create(&models.Order{ID: "c2", OrderNo: "XD012", UserID: 1, TotalAmount: 100, Status: models.OrderStatusCompleted, SettlementMode: models.SettlementModeSupplierTransfer}).Error)
	assert.NoError(t, db.Create(&models.Order{ID: "c3", OrderNo: "XD013", UserID: 1, TotalAmount: 100, Status: models.OrderStatusCompleted, IsDeleted: true, SettlementMode: models.SettlementModeCommission}).Error)

	orders, err := repo.FindCommissionCandidates(context.Background())
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, "c1", orders[0].ID)
}
