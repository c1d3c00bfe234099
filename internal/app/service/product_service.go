package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrops-br/products-rbac-api/internal/app/dto"
	"github.com/mrops-br/products-rbac-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ProductService handles product use cases. Callers are authorized before
// any method is reached.
type ProductService struct {
	repo                  domain.ProductRepository
	tracer                trace.Tracer
	logger                *slog.Logger
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		repo:                  repo,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
	}
}

func (s *ProductService) record(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

func resultOf(err error) string {
	var verr *domain.ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	case errors.As(err, &verr):
		return "invalid"
	default:
		return "failure"
	}
}

func (s *ProductService) fail(ctx context.Context, span trace.Span, operation, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.record(ctx, operation, resultOf(err))

	if resultOf(err) == "failure" {
		s.logger.ErrorContext(ctx, msg, slog.String("error", err.Error()))
		return
	}
	s.logger.WarnContext(ctx, msg, slog.String("error", err.Error()))
}

// CreateProduct validates the request and stores a new product
func (s *ProductService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	product, err := req.Validate()
	if err != nil {
		s.fail(ctx, span, "create", "Validation failed", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("product.title", product.Title))

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("title", product.Title),
	)

	if err := s.repo.Create(ctx, product); err != nil {
		err = fmt.Errorf("store product: %w", err)
		s.fail(ctx, span, "create", "Failed to store product", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("product.id", product.ID))

	s.productCreatedCounter.Add(ctx, 1)
	s.record(ctx, "create", "success")

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.String("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return dto.ToProductResponse(product), nil
}

// ListProducts retrieves all products
func (s *ProductService) ListProducts(ctx context.Context) ([]*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	s.logger.InfoContext(ctx, "Listing all products")

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		err = fmt.Errorf("list products: %w", err)
		s.fail(ctx, span, "list", "Failed to list products", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.record(ctx, "list", "success")

	s.logger.InfoContext(ctx, "Products listed successfully",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return dto.ToProductResponseList(products), nil
}

// UpdateProduct overwrites the truthy fields of the request on an existing
// product and returns the product as stored afterwards.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req *dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	s.logger.InfoContext(ctx, "Updating product",
		slog.String("product_id", id),
	)

	patch, err := req.Patch()
	if err != nil {
		s.fail(ctx, span, "update", "Validation failed", err)
		return nil, err
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.fail(ctx, span, "update", "Failed to find product", err)
		return nil, err
	}

	if !patch.IsEmpty() {
		product, err = s.repo.Update(ctx, id, patch)
		if err != nil {
			err = fmt.Errorf("update product %s: %w", id, err)
			s.fail(ctx, span, "update", "Failed to update product", err)
			return nil, err
		}
	}

	s.record(ctx, "update", "success")

	s.logger.InfoContext(ctx, "Product updated successfully",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return dto.ToProductResponse(product), nil
}

// DeleteProduct permanently removes a product
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	s.logger.InfoContext(ctx, "Deleting product",
		slog.String("product_id", id),
	)

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		s.fail(ctx, span, "delete", "Failed to find product", err)
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		err = fmt.Errorf("delete product %s: %w", id, err)
		s.fail(ctx, span, "delete", "Failed to delete product", err)
		return err
	}

	s.record(ctx, "delete", "success")

	s.logger.InfoContext(ctx, "Product deleted successfully",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}
