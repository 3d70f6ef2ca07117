package repository

import (
	"context"

	"gorm.io/gorm"

	"catalog_studio_v1_202610/internal/model"
)

// ==================== 仓储接口 ====================

// BrandRepository 品牌仓储接口
type BrandRepository interface {
	Create(ctx context.Context, brand *model.Brand) error
	GetByID(ctx context.Context, id int64) (*model.Brand, error)
	List(ctx context.Context) ([]model.Brand, error)
	FirstOrCreate(ctx context.Context, name string) (*model.Brand, error)
}

// CategoryRepository 分类仓储接口
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	FirstOrCreate(ctx context.Context, name string) (*model.Category, error)
}

// ==================== Brand 仓储实现 ====================

type brandRepo struct {
	db *gorm.DB
}

// NewBrandRepository 创建品牌仓储
func NewBrandRepository(db *gorm.DB) BrandRepository {
	return &brandRepo{db: db}
}

func (r *brandRepo) Create(ctx context.Context, brand *model.Brand) error {
	return r.db.WithContext(ctx).Create(brand).Error
}

func (r *brandRepo) GetByID(ctx context.Context, id int64) (*model.Brand, error) {
	var brand model.Brand
	if err := r.db.WithContext(ctx).First(&brand, id).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *brandRepo) List(ctx context.Context) ([]model.Brand, error) {
	var brands []model.Brand
	err := r.db.WithContext(ctx).Order("name ASC").Find(&brands).Error
	return brands, err
}

func (r *brandRepo) FirstOrCreate(ctx context.Context, name string) (*model.Brand, error) {
	brand := model.Brand{Name: name}
	if err := r.db.WithContext(ctx).Where(model.Brand{Name: name}).FirstOrCreate(&brand).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

// ==================== Category 仓储实现 ====================

type categoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) FirstOrCreate(ctx context.Context, name string) (*model.Category, error) {
	category := model.Category{Name: name}
	if err := r.db.WithContext(ctx).Where(model.Category{Name: name}).FirstOrCreate(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
