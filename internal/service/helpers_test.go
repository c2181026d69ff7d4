package service

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sellpoint/pos-backend/internal/cache"
	"github.com/sellpoint/pos-backend/internal/config"
	"github.com/sellpoint/pos-backend/internal/models"
	"github.com/sellpoint/pos-backend/internal/mykafka"
	"github.com/sellpoint/pos-backend/internal/repo"
)

type testEnv struct {
	DB       *gorm.DB
	Cache    *cache.Cache
	Store    *repo.GormRepo
	Products *ProductService
	Carts    *CartService
	Orders   *OrderService
}

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// a second connection to :memory: would open a different database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := newTestDB(t)
	c := cache.New(time.Minute)
	store := &repo.GormRepo{DB: db}
	producer := &mykafka.Producer{}

	orders := &OrderService{Repo: store, Cache: c, Producer: producer}
	return &testEnv{
		DB:       db,
		Cache:    c,
		Store:    store,
		Products: &ProductService{Repo: store, Cache: c, Producer: producer},
		Carts:    &CartService{Repo: store, Cache: c, Producer: producer, Orders: orders},
		Orders:   orders,
	}
}

func (env *testEnv) createProduct(t *testing.T, name string, price float64, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Description: name + " description", Price: price, Stock: stock}
	require.NoError(t, env.DB.Create(&p).Error)
	return p
}

func (env *testEnv) productStock(t *testing.T, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, env.DB.First(&p, id).Error)
	return p.Stock
}

func (env *testEnv) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.DB.Model(model).Count(&n).Error)
	return n
}
