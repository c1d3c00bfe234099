package domain

// Product represents the product entity
type Product struct {
	ID             string
	Title          string
	Description    string
	InventoryCount int
}

// NewProduct creates a product that has not been stored yet. The ID is
// assigned by the repository on Create.
func NewProduct(title, description string, inventoryCount int) *Product {
	return &Product{
		Title:          title,
		Description:    description,
		InventoryCount: inventoryCount,
	}
}

// ProductPatch holds the fields an update overwrites. Nil fields are left
// untouched.
type ProductPatch struct {
	Title          *string
	Description    *string
	InventoryCount *int
}

// IsEmpty reports whether the patch sets nothing
func (p ProductPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.InventoryCount == nil
}

// Apply overwrites the fields set in the patch
func (p ProductPatch) Apply(product *Product) {
	if p.Title != nil {
		product.Title = *p.Title
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.InventoryCount != nil {
		product.InventoryCount = *p.InventoryCount
	}
}
