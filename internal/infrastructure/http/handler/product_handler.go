package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mrops-br/products-rbac-api/internal/app/dto"
	"github.com/mrops-br/products-rbac-api/internal/app/service"
	"github.com/mrops-br/products-rbac-api/internal/domain"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/http/response"
)

// ProductHandler handles HTTP requests for products. Routes are expected to
// be authenticated and authorized by middleware.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// decode reads a JSON body. An empty body decodes as an empty object.
func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := render.DecodeJSON(r.Body, v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	h.logger.WarnContext(r.Context(), "Failed to decode request body",
		slog.String("error", err.Error()),
	)
	response.Validation(w, r, dto.BodyError())
	return false
}

func (h *ProductHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Validation(w, r, verr)
	case errors.Is(err, domain.ErrProductNotFound):
		response.Message(w, r, http.StatusNotFound, response.MsgNotFound)
	case errors.Is(err, domain.ErrForbidden):
		response.Message(w, r, http.StatusForbidden, response.MsgAccessDenied)
	default:
		h.logger.ErrorContext(r.Context(), "Request failed",
			slog.String("error", err.Error()),
		)
		response.ServerError(w, r)
	}
}

// CreateProduct handles POST /
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, product)
}

// ListProducts handles GET /
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, products)
}

// UpdateProduct handles PUT /{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, product)
}

// DeleteProduct handles DELETE /{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Message(w, r, http.StatusOK, response.MsgRemoved)
}
