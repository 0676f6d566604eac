package inventory

import (
	"context"
	"sync"
	"time"
)

// Product 是库存目录中的一条商品记录。
type Product struct {
	SKU               string    `gorm:"primaryKey;column:sku" json:"sku"`
	ProductName       string    `gorm:"column:product_name" json:"product_name"`
	Quantity          int       `gorm:"column:quantity" json:"quantity"`
	UnitPrice         float64   `gorm:"column:unit_price" json:"unit_price"`
	WarehouseLocation string    `gorm:"column:warehouse_location" json:"warehouse_location"`
	LastUpdated       time.Time `gorm:"column:last_updated" json:"last_updated"`
}

// TableName sets the MySQL table backing the catalog.
func (Product) TableName() string { return "products" }

// Catalog abstracts product persistence so the agent can run against MySQL
// in production and the seeded in-memory catalog in tests.
type Catalog interface {
	Get(ctx context.Context, sku string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Save(ctx context.Context, product *Product) error
}

// SeedProducts returns the default demo catalog.
func SeedProducts() []*Product {
	now := time.Now().UTC()
	return []*Product{
		{SKU: "SKU001", ProductName: "Widget Pro", Quantity: 150, UnitPrice: 29.99, WarehouseLocation: "A-01-01", LastUpdated: now},
		{SKU: "SKU002", ProductName: "Gadget Lite", Quantity: 45, UnitPrice: 19.99, WarehouseLocation: "B-02-03", LastUpdated: now},
		{SKU: "SKU003", ProductName: "Device Max", Quantity: 5, UnitPrice: 199.99, WarehouseLocation: "C-01-05", LastUpdated: now},
	}
}

// MemoryCatalog is the in-process Catalog implementation.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]*Product
	order    []string
}

// NewMemoryCatalog creates a catalog pre-loaded with the seed products.
func NewMemoryCatalog() *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[string]*Product)}
	for _, p := range SeedProducts() {
		c.products[p.SKU] = p
		c.order = append(c.order, p.SKU)
	}
	return c
}

// Get returns the product for a SKU, or (nil, nil) when absent.
func (c *MemoryCatalog) Get(ctx context.Context, sku string) (*Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[sku]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// List returns every product in insertion order.
func (c *MemoryCatalog) List(ctx context.Context) ([]*Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]*Product, 0, len(c.order))
	for _, sku := range c.order {
		cp := *c.products[sku]
		result = append(result, &cp)
	}
	return result, nil
}

// Save upserts a product.
func (c *MemoryCatalog) Save(ctx context.Context, product *Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[product.SKU]; !ok {
		c.order = append(c.order, product.SKU)
	}
	cp := *product
	c.products[product.SKU] = &cp
	return nil
}
