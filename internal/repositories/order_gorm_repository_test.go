package repositories_test

import (
	"fmt"
	"testing"
	"time"

	"comanda/internal/models"
	"comanda/internal/repositories"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// One shared in-memory database per test, so parallel connections in
	// the pool see the same data without tests bleeding into each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Order{}, &models.Product{}, &models.Ingredient{}))
	return db
}

func newOrder(table int, status models.ItemStatus, createdAt time.Time) *models.Order {
	order := &models.Order{
		TableNumber: table,
		Items: []models.OrderItem{
			{ProductID: "prod-1", Name: "Paella", Price: 14.50, Qty: 1, Category: "segundo", Status: status},
		},
		TotalAmount: 14.50,
		CreatedAt:   createdAt,
	}
	order.Recompute()
	return order
}

func TestGORMOrderRepository_CreateAssignsSequence(t *testing.T) {
	repo := repositories.NewGORMOrderRepository(newTestDB(t))

	first := newOrder(1, models.ItemStatusPending, time.Now())
	second := newOrder(2, models.ItemStatusPending, time.Now())
	assert.NoError(t, repo.Create(first))
	assert.NoError(t, repo.Create(second))

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, int64(1), first.Version)
	assert.Greater(t, second.Seq, first.Seq, "sequence must grow with insertion order")
}

func TestGORMOrderRepository_UpdateIsCompareAndSwap(t *testing.T) {
	repo := repositories.NewGORMOrderRepository(newTestDB(t))

	order := newOrder(1, models.ItemStatusPending, time.Now())
	assert.NoError(t, repo.Create(order))

	// Two readers fetch the same version.
	a, err := repo.GetByID(order.ID)
	assert.NoError(t, err)
	b, err := repo.GetByID(order.ID)
	assert.NoError(t, err)

	a.Items[0].Status = models.ItemStatusCooking
	a.Recompute()
	assert.NoError(t, repo.Update(a))

	// The second writer lost the race and must not clobber the first.
	b.Items[0].Status = models.ItemStatusCancelled
	b.Recompute()
	assert.ErrorIs(t, repo.Update(b), models.ErrVersionConflict)

	stored, err := repo.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ItemStatusCooking, stored.Items[0].Status)
	assert.Equal(t, a.Version, stored.Version)
}

func TestGORMOrderRepository_UpdateMissingOrder(t *testing.T) {
	repo := repositories.NewGORMOrderRepository(newTestDB(t))

	ghost := newOrder(1, models.ItemStatusPending, time.Now())
	ghost.ID = "no-such-order"
	ghost.Version = 1
	assert.ErrorIs(t, repo.Update(ghost), models.ErrNotFound)
}

func TestGORMOrderRepository_ActiveCounts(t *testing.T) {
	repo := repositories.NewGORMOrderRepository(newTestDB(t))
	t0 := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, repo.Create(newOrder(1, models.ItemStatusPending, t0)))
	cooking := newOrder(2, models.ItemStatusCooking, t0.Add(time.Second))
	assert.NoError(t, repo.Create(cooking))
	assert.NoError(t, repo.Create(newOrder(3, models.ItemStatusServed, t0.Add(2*time.Second))))

	active, err := repo.CountActive()
	assert.NoError(t, err)
	assert.Equal(t, 2, active, "served orders are not active")

	ahead, err := repo.CountActiveBefore(cooking.CreatedAt, cooking.Seq)
	assert.NoError(t, err)
	assert.Equal(t, 1, ahead)
}

func TestGORMOrderRepository_CountActiveBeforeBreaksTies(t *testing.T) {
	repo := repositories.NewGORMOrderRepository(newTestDB(t))
	t0 := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	first := newOrder(1, models.ItemStatusCooking, t0)
	second := newOrder(2, models.ItemStatusCooking, t0)
	assert.NoError(t, repo.Create(first))
	assert.NoError(t, repo.Create(second))

	ahead, err := repo.CountActiveBefore(second.CreatedAt, second.Seq)
	assert.NoError(t, err)
	assert.Equal(t, 1, ahead, "identical timestamps fall back to seq")

	ahead, err = repo.CountActiveBefore(first.CreatedAt, first.Seq)
	assert.NoError(t, err)
	assert.Equal(t, 0, ahead)
}

func TestGORMOrderRepository_FindActiveByTable(t *testing.T) {
	repo := repositories.NewGORMOrderRepository(newTestDB(t))

	order := newOrder(7, models.ItemStatusCooking, time.Now())
	assert.NoError(t, repo.Create(order))

	found, err := repo.FindActiveByTable(7)
	assert.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = repo.FindActiveByTable(8)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Served and paid closes the table.
	found.Items[0].Status = models.ItemStatusServed
	found.IsPaid = true
	found.Recompute()
	assert.NoError(t, repo.Update(found))

	_, err = repo.FindActiveByTable(7)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGORMOrderRepository_ListSincePagesAndSorts(t *testing.T) {
	repo := repositories.NewGORMOrderRepository(newTestDB(t))
	t0 := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		order := newOrder(5-i, models.ItemStatusReady, t0.Add(time.Duration(i)*time.Minute))
		assert.NoError(t, repo.Create(order))
	}

	page, err := repo.ListSince(t0, repositories.HistorySortRecency, 3, 0)
	assert.NoError(t, err)
	assert.Len(t, page, 3)

	rest, err := repo.ListSince(t0, repositories.HistorySortRecency, 3, 3)
	assert.NoError(t, err)
	assert.Len(t, rest, 2, "offset restarts the scan where it stopped")

	byTable, err := repo.ListSince(t0, repositories.HistorySortTable, 5, 0)
	assert.NoError(t, err)
	for i := 1; i < len(byTable); i++ {
		assert.LessOrEqual(t, byTable[i-1].TableNumber, byTable[i].TableNumber)
	}

	none, err := repo.ListSince(t0.Add(time.Hour), repositories.HistorySortRecency, 5, 0)
	assert.NoError(t, err)
	assert.Empty(t, none)
}

func TestGORMOrderRepository_ItemsRoundTrip(t *testing.T) {
	repo := repositories.NewGORMOrderRepository(newTestDB(t))

	order := newOrder(1, models.ItemStatusPending, time.Now())
	order.Items = append(order.Items, models.OrderItem{
		ProductID: "prod-2", Name: "Coca-Cola", Price: 2.50, Qty: 2, Category: models.CategoryDrink, Status: models.ItemStatusPending,
	})
	assert.NoError(t, repo.Create(order))

	stored, err := repo.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, "Coca-Cola", stored.Items[1].Name)
	assert.True(t, stored.Items[1].IsDrink())
}

func TestGORMOrderRepository_Delete(t *testing.T) {
	repo := repositories.NewGORMOrderRepository(newTestDB(t))

	order := newOrder(1, models.ItemStatusServed, time.Now())
	assert.NoError(t, repo.Create(order))
	assert.NoError(t, repo.Delete(order.ID))

	_, err := repo.GetByID(order.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(order.ID), models.ErrNotFound)
}

func TestGORMIngredientRepository_ListLowStock(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGORMIngredientRepository(db)

	ingredients := []models.Ingredient{
		{ID: "ing-1", Name: "Arroz", Unit: "kg", Stock: 40, LowStockThreshold: 5},
		{ID: "ing-2", Name: "Azafran", Unit: "g", Stock: 5, LowStockThreshold: 10},
		{ID: "ing-3", Name: "Tomate", Unit: "kg", Stock: 2, LowStockThreshold: 2},
	}
	for i := range ingredients {
		assert.NoError(t, db.Create(&ingredients[i]).Error)
	}

	low, err := repo.ListLowStock()
	assert.NoError(t, err)
	assert.Len(t, low, 2)
	for _, ing := range low {
		assert.True(t, ing.IsLow())
	}

	all, err := repo.GetAll()
	assert.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMockOrderRepository_MatchesStoreSemantics(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	t0 := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	order := newOrder(1, models.ItemStatusPending, t0)
	assert.NoError(t, repo.Create(order))

	stale, err := repo.GetByID(order.ID)
	assert.NoError(t, err)

	fresh, err := repo.GetByID(order.ID)
	assert.NoError(t, err)
	fresh.Items[0].Status = models.ItemStatusCooking
	fresh.Recompute()
	assert.NoError(t, repo.Update(fresh))

	stale.Items[0].Status = models.ItemStatusCancelled
	stale.Recompute()
	assert.ErrorIs(t, repo.Update(stale), models.ErrVersionConflict,
		fmt.Sprintf("mock must reject stale version %d", stale.Version))
}
