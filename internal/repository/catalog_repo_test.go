package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"catalog_studio_v1_202610/internal/model"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.Brand{}, &model.Category{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func TestBrandRepo_ListOrdered(t *testing.T) {
	repo := NewBrandRepository(setupCatalogTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"Zeta", "Acme", "Mono"} {
		require.NoError(t, repo.Create(ctx, &model.Brand{Name: name}))
	}

	brands, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 3)
	assert.Equal(t, "Acme", brands[0].Name)
	assert.Equal(t, "Zeta", brands[2].Name)

	got, err := repo.GetByID(ctx, brands[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Mono", got.Name)
}

func TestBrandRepo_DuplicateName(t *testing.T) {
	repo := NewBrandRepository(setupCatalogTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Brand{Name: "Acme"}))
	err := repo.Create(ctx, &model.Brand{Name: "Acme"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCategoryRepo_FirstOrCreate(t *testing.T) {
	repo := NewCategoryRepository(setupCatalogTestDB(t))
	ctx := context.Background()

	first, err := repo.FirstOrCreate(ctx, "Shirts")
	require.NoError(t, err)
	again, err := repo.FirstOrCreate(ctx, "Shirts")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	categories, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
