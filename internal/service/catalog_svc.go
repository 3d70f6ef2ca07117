package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"catalog_studio_v1_202610/internal/model"
	"catalog_studio_v1_202610/internal/repository"
	"catalog_studio_v1_202610/pkg/utils"
)

// CatalogReferences 表单会话内冻结的引用列表
type CatalogReferences struct {
	Brands     []model.CatalogRef `json:"brands"`
	Categories []model.CatalogRef `json:"categories"`
}

// CatalogService 品牌/分类引用提供者（只读）
type CatalogService struct {
	brandRepo    repository.BrandRepository
	categoryRepo repository.CategoryRepository
	cache        *utils.TTLCache[*CatalogReferences]
}

const catalogCacheKey = "catalog:references"

// NewCatalogService 创建引用服务
func NewCatalogService(
	brandRepo repository.BrandRepository,
	categoryRepo repository.CategoryRepository,
	cacheTTL time.Duration,
) *CatalogService {
	return &CatalogService{
		brandRepo:    brandRepo,
		categoryRepo: categoryRepo,
		cache:        utils.NewTTLCache[*CatalogReferences](cacheTTL),
	}
}

// References 并发拉取品牌与分类
func (s *CatalogService) References(ctx context.Context) (*CatalogReferences, error) {
	if refs, ok := s.cache.Get(catalogCacheKey); ok {
		return refs, nil
	}

	var (
		brands     []model.Brand
		categories []model.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		brands, err = s.brandRepo.List(gctx)
		if err != nil {
			return fmt.Errorf("list brands: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = s.categoryRepo.List(gctx)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	refs := &CatalogReferences{
		Brands:     make([]model.CatalogRef, 0, len(brands)),
		Categories: make([]model.CatalogRef, 0, len(categories)),
	}
	for _, b := range brands {
		refs.Brands = append(refs.Brands, model.CatalogRef{ID: strconv.FormatInt(b.ID, 10), Name: b.Name})
	}
	for _, c := range categories {
		refs.Categories = append(refs.Categories, model.CatalogRef{ID: strconv.FormatInt(c.ID, 10), Name: c.Name})
	}

	s.cache.Set(catalogCacheKey, refs)
	return refs, nil
}

// Invalidate 种子数据变更后清缓存
func (s *CatalogService) Invalidate() {
	s.cache.Delete(catalogCacheKey)
}

// Seed 写入初始品牌/分类（已存在则跳过）
func (s *CatalogService) Seed(ctx context.Context, brands, categories []string) error {
	for _, name := range brands {
		if _, err := s.brandRepo.FirstOrCreate(ctx, name); err != nil {
			return fmt.Errorf("seed brand %q: %w", name, err)
		}
	}
	for _, name := range categories {
		if _, err := s.categoryRepo.FirstOrCreate(ctx, name); err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
	}
	s.Invalidate()
	return nil
}

// CreateBrand 新增品牌，已打开的表单仍使用各自冻结的列表
func (s *CatalogService) CreateBrand(ctx context.Context, name string) (*model.CatalogRef, error) {
	brand := &model.Brand{Name: strings.TrimSpace(name)}
	if err := s.brandRepo.Create(ctx, brand); err != nil {
		return nil, translateCatalogErr(err)
	}
	s.Invalidate()
	return &model.CatalogRef{ID: strconv.FormatInt(brand.ID, 10), Name: brand.Name}, nil
}

// CreateCategory 新增分类
func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*model.CatalogRef, error) {
	category := &model.Category{Name: strings.TrimSpace(name)}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, translateCatalogErr(err)
	}
	s.Invalidate()
	return &model.CatalogRef{ID: strconv.FormatInt(category.ID, 10), Name: category.Name}, nil
}

func translateCatalogErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrCatalogDuplicate
	}
	return err
}
