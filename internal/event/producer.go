package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/utafrali/catalog-service/internal/domain"
	pkgkafka "github.com/utafrali/catalog-service/pkg/kafka"
)

// Kafka topic constants for catalog domain events.
const (
	TopicProductCreated = "catalog.product.created"
	TopicProductUpdated = "catalog.product.updated"
	TopicProductDeleted = "catalog.product.deleted"

	TopicProductTypeCreated = "catalog.product_type.created"
	TopicProductTypeUpdated = "catalog.product_type.updated"
	TopicProductTypeDeleted = "catalog.product_type.deleted"
)

// Aggregate type constants.
const (
	AggregateTypeProduct     = "product"
	AggregateTypeProductType = "product_type"
)

// Source identifier for events originating from the catalog service.
const SourceCatalogService = "catalog-service"

// ProductEventData is the payload for product.created and product.updated events.
type ProductEventData struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Price        int64    `json:"price"`
	Brand        *string  `json:"brand,omitempty"`
	MemoryAmount *int64   `json:"memory_amount,omitempty"`
	TypeID       int64    `json:"type_id"`
	ImageURLs    []string `json:"image_urls"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID int64 `json:"id"`
}

// ProductTypeEventData is the payload for product_type.created and
// product_type.updated events.
type ProductTypeEventData struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	IconURL string `json:"icon_url"`
}

// ProductTypeDeletedData is the payload for a product_type.deleted event.
type ProductTypeDeletedData struct {
	ID int64 `json:"id"`
}

// Producer publishes catalog domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the catalog service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publishProduct(ctx, TopicProductCreated, product)
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publishProduct(ctx, TopicProductUpdated, product)
}

func (p *Producer) publishProduct(ctx context.Context, topic string, product *domain.Product) error {
	data := ProductEventData{
		ID:           product.ID,
		Title:        product.Title,
		Price:        product.Price,
		Brand:        product.Brand,
		MemoryAmount: product.MemoryAmount,
		TypeID:       product.TypeID,
		ImageURLs:    imageURLs(product.Images),
	}

	event, err := pkgkafka.NewEvent(topic, formatID(product.ID), AggregateTypeProduct, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published product event",
		slog.String("topic", topic),
		slog.Int64("product_id", product.ID),
	)

	return nil
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id int64) error {
	event, err := pkgkafka.NewEvent(TopicProductDeleted, formatID(id), AggregateTypeProduct, SourceCatalogService, ProductDeletedData{ID: id})
	if err != nil {
		return fmt.Errorf("create product.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProductDeleted, event); err != nil {
		return fmt.Errorf("publish product.deleted event: %w", err)
	}

	return nil
}

// PublishProductTypeCreated publishes a product_type.created event.
func (p *Producer) PublishProductTypeCreated(ctx context.Context, pt *domain.ProductType) error {
	return p.publishProductType(ctx, TopicProductTypeCreated, pt)
}

// PublishProductTypeUpdated publishes a product_type.updated event.
func (p *Producer) PublishProductTypeUpdated(ctx context.Context, pt *domain.ProductType) error {
	return p.publishProductType(ctx, TopicProductTypeUpdated, pt)
}

func (p *Producer) publishProductType(ctx context.Context, topic string, pt *domain.ProductType) error {
	data := ProductTypeEventData{
		ID:      pt.ID,
		Title:   pt.Title,
		IconURL: pt.IconURL,
	}

	event, err := pkgkafka.NewEvent(topic, formatID(pt.ID), AggregateTypeProductType, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published product type event",
		slog.String("topic", topic),
		slog.Int64("product_type_id", pt.ID),
	)

	return nil
}

// PublishProductTypeDeleted publishes a product_type.deleted event.
func (p *Producer) PublishProductTypeDeleted(ctx context.Context, id int64) error {
	event, err := pkgkafka.NewEvent(TopicProductTypeDeleted, formatID(id), AggregateTypeProductType, SourceCatalogService, ProductTypeDeletedData{ID: id})
	if err != nil {
		return fmt.Errorf("create product_type.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProductTypeDeleted, event); err != nil {
		return fmt.Errorf("publish product_type.deleted event: %w", err)
	}

	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func imageURLs(images []domain.ProductImage) []string {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.URL)
	}
	return urls
}
