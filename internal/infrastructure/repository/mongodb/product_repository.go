package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrops-br/products-rbac-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const productCollectionName = "products"

type productDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Title          string             `bson:"title"`
	Description    string             `bson:"description"`
	InventoryCount int                `bson:"inventoryCount"`
}

func (d *productDocument) toDomain() *domain.Product {
	return &domain.Product{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		Description:    d.Description,
		InventoryCount: d.InventoryCount,
	}
}

// ProductRepository stores products in a MongoDB collection
type ProductRepository struct {
	collection *mongo.Collection
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewProductRepository creates a repository over the products collection of db
func NewProductRepository(db *mongo.Database, tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection(productCollectionName),
		tracer:     tracer,
		logger:     logger,
	}
}

// parseID treats ids that are not ObjectIDs as unknown products
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrProductNotFound
	}
	return oid, nil
}

func spanError(span trace.Span, err error, msg string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
}

// Create inserts the product and sets its generated ID
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	doc := productDocument{
		Title:          product.Title,
		Description:    product.Description,
		InventoryCount: product.InventoryCount,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		spanError(span, err, "Insert failed")
		return fmt.Errorf("failed to insert product: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		err := fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
		spanError(span, err, "Insert failed")
		return err
	}
	product.ID = oid.Hex()

	span.SetAttributes(attribute.String("product.id", product.ID))

	r.logger.InfoContext(ctx, "Product inserted",
		slog.String("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	oid, err := parseID(id)
	if err != nil {
		spanError(span, err, "Invalid product id")
		return nil, err
	}

	var doc productDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		spanError(span, domain.ErrProductNotFound, "Product not found")
		r.logger.WarnContext(ctx, "Product not found",
			slog.String("product_id", id),
		)
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		spanError(span, err, "Find failed")
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	span.SetStatus(codes.Ok, "Product found")
	return doc.toDomain(), nil
}

// FindAll retrieves all products in natural order
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	cursor, err := r.collection.Find(ctx, bson.D{})
	if err != nil {
		spanError(span, err, "Find failed")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		spanError(span, err, "Decode failed")
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].toDomain())
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// Update sets the patched fields and returns the document after the update
func (r *ProductRepository) Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	oid, err := parseID(id)
	if err != nil {
		spanError(span, err, "Invalid product id")
		return nil, err
	}

	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.InventoryCount != nil {
		set["inventoryCount"] = *patch.InventoryCount
	}
	if len(set) == 0 {
		// $set rejects an empty document
		return r.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		spanError(span, domain.ErrProductNotFound, "Product not found")
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		spanError(span, err, "Update failed")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	r.logger.InfoContext(ctx, "Product updated",
		slog.String("product_id", id),
		slog.Int("fields", len(set)),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return doc.toDomain(), nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	oid, err := parseID(id)
	if err != nil {
		spanError(span, err, "Invalid product id")
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		spanError(span, err, "Delete failed")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		spanError(span, domain.ErrProductNotFound, "Product not found")
		return domain.ErrProductNotFound
	}

	r.logger.InfoContext(ctx, "Product deleted",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}
