package inventory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormCatalog is the MySQL-backed Catalog implementation.
type GormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog migrates the products table and seeds it on first use.
func NewGormCatalog(db *gorm.DB) (*GormCatalog, error) {
	if err := db.AutoMigrate(&Product{}); err != nil {
		return nil, fmt.Errorf("failed to migrate products table: %w", err)
	}

	var count int64
	if err := db.Model(&Product{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		if err := db.Create(SeedProducts()).Error; err != nil {
			return nil, fmt.Errorf("failed to seed products: %w", err)
		}
	}
	return &GormCatalog{db: db}, nil
}

// Get returns the product for a SKU, or (nil, nil) when absent.
func (c *GormCatalog) Get(ctx context.Context, sku string) (*Product, error) {
	var product Product
	err := c.db.WithContext(ctx).First(&product, "sku = ?", sku).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// List returns every product ordered by SKU.
func (c *GormCatalog) List(ctx context.Context) ([]*Product, error) {
	var products []*Product
	if err := c.db.WithContext(ctx).Order("sku").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Save upserts a product.
func (c *GormCatalog) Save(ctx context.Context, product *Product) error {
	return c.db.WithContext(ctx).Save(product).Error
}
