package dto

import (
	"bytes"
	"encoding/json"

	"github.com/mrops-br/products-rbac-api/internal/domain"
)

// CreateProductRequest represents the request to create a product.
// Fields are loosely typed: scalar title and description values are stored
// as text and InventoryCount accepts a JSON number or a numeric string.
type CreateProductRequest struct {
	Title          any `json:"title" validate:"text"`
	Description    any `json:"description" validate:"text"`
	InventoryCount any `json:"inventoryCount" validate:"integer"`
}

// UnmarshalJSON keeps numbers as json.Number so large counts stay exact
func (r *CreateProductRequest) UnmarshalJSON(data []byte) error {
	type plain CreateProductRequest
	return decodeExact(data, (*plain)(r))
}

// UpdateProductRequest represents a partial product update. Only truthy
// values are applied: empty strings, 0, false and null leave the stored
// field as it is.
type UpdateProductRequest struct {
	Title          any `json:"title" validate:"omitempty,falsy|text"`
	Description    any `json:"description" validate:"omitempty,falsy|text"`
	InventoryCount any `json:"inventoryCount" validate:"omitempty,falsy|integer"`
}

// UnmarshalJSON keeps numbers as json.Number so large counts stay exact
func (r *UpdateProductRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateProductRequest
	return decodeExact(data, (*plain)(r))
}

func decodeExact(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID             string `json:"_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	InventoryCount int    `json:"inventoryCount"`
}

// MessageResponse is the body of status replies such as "Product removed"
type MessageResponse struct {
	Msg string `json:"msg"`
}

// ValidationErrorResponse lists every rejected field
type ValidationErrorResponse struct {
	Errors []domain.FieldError `json:"errors"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:             p.ID,
		Title:          p.Title,
		Description:    p.Description,
		InventoryCount: p.InventoryCount,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []*domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}
