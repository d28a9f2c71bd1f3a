// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/agriconnect-backend/internal/apperr"
	"github.com/javajoker/agriconnect-backend/internal/i18n"
	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Name              string          `json:"name" validate:"required,min=2,max=255"`
	Description       string          `json:"description" validate:"max=5000"`
	Category          string          `json:"category,omitempty" validate:"max=100"`
	PricePerUnit      decimal.Decimal `json:"price_per_unit"`
	Unit              string          `json:"unit,omitempty" validate:"max=20"`
	QuantityAvailable int             `json:"quantity_available" validate:"min=0"`
	Image             string          `json:"image,omitempty" validate:"max=512"`
	Images            []string        `json:"images,omitempty"`
}

type UpdateProductRequest struct {
	Name              *string          `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description       *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category          *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	PricePerUnit      *decimal.Decimal `json:"price_per_unit,omitempty"`
	Unit              *string          `json:"unit,omitempty" validate:"omitempty,max=20"`
	QuantityAvailable *int             `json:"quantity_available,omitempty" validate:"omitempty,min=0"`
	Image             *string          `json:"image,omitempty" validate:"omitempty,max=512"`
	Images            []string         `json:"images,omitempty"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	FarmerID *uuid.UUID       `json:"farmer_id,omitempty"`
	PriceMin *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax *decimal.Decimal `json:"price_max,omitempty"`
	InStock  bool             `json:"in_stock,omitempty"`
}

var productSortFields = []string{"created_at", "updated_at", "name", "price_per_unit", "rating", "views"}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func publicUserColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "phone", "location", "role")
}

func (s *ProductService) CreateProduct(ctx context.Context, farmerID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperr.Validation(err, "validation failed")
	}
	if !req.PricePerUnit.IsPositive() {
		return nil, apperr.New(apperr.KindValidation, "price_per_unit must be greater than 0")
	}

	product := &models.Product{
		FarmerID:          farmerID,
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		Category:          req.Category,
		PricePerUnit:      req.PricePerUnit,
		Unit:              req.Unit,
		QuantityAvailable: req.QuantityAvailable,
		Image:             req.Image,
		Images:            pq.StringArray(req.Images),
	}
	if product.Unit == "" {
		product.Unit = "kg"
	}
	if product.Image == "" {
		product.Image = models.DefaultProductImage
	}

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, apperr.Internal(err, "failed to create product")
	}

	return s.GetProduct(ctx, product.ID)
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Farmer", publicUserColumns).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Reviews.User", publicUserColumns).
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(i18n.KeyProductNotFound)
		}
		return nil, apperr.Internal(err, "failed to load product")
	}
	return &product, nil
}

func (s *ProductService) SearchProducts(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})

	if params.FarmerID != nil {
		query = query.Where("farmer_id = ?", *params.FarmerID)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", searchTerm, searchTerm)
	}

	if params.PriceMin != nil {
		query = query.Where("price_per_unit >= ?", *params.PriceMin)
	}

	if params.PriceMax != nil {
		query = query.Where("price_per_unit <= ?", *params.PriceMax)
	}

	if params.InStock {
		query = query.Where("quantity_available > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to count products")
	}

	query = query.Scopes(utils.SortBy(params.PaginationParams, productSortFields), utils.Paginate(params.PaginationParams))

	var products []models.Product
	if err := query.Preload("Farmer", publicUserColumns).Find(&products).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to fetch products")
	}

	return products, total, nil
}

// GetFarmerProducts lists the products of one farmer, newest first.
func (s *ProductService) GetFarmerProducts(ctx context.Context, farmerID uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error) {
	return s.SearchProducts(ctx, ProductSearchParams{PaginationParams: params, FarmerID: &farmerID})
}

func (s *ProductService) UpdateProduct(ctx context.Context, id, farmerID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperr.Validation(err, "validation failed")
	}
	if req.PricePerUnit != nil && !req.PricePerUnit.IsPositive() {
		return nil, apperr.New(apperr.KindValidation, "price_per_unit must be greater than 0")
	}

	product, err := s.ownedProduct(ctx, id, farmerID)
	if err != nil {
		return nil, err
	}

	var columns []string
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
		columns = append(columns, "name")
	}
	if req.Description != nil {
		product.Description = *req.Description
		columns = append(columns, "description")
	}
	if req.Category != nil {
		product.Category = *req.Category
		columns = append(columns, "category")
	}
	if req.PricePerUnit != nil {
		product.PricePerUnit = *req.PricePerUnit
		columns = append(columns, "price_per_unit")
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
		columns = append(columns, "unit")
	}
	if req.QuantityAvailable != nil {
		product.QuantityAvailable = *req.QuantityAvailable
		columns = append(columns, "quantity_available")
	}
	if req.Image != nil {
		product.Image = *req.Image
		columns = append(columns, "image")
	}
	if req.Images != nil {
		product.Images = pq.StringArray(req.Images)
		columns = append(columns, "images")
	}

	if len(columns) > 0 {
		if err := s.db.WithContext(ctx).Model(product).Select(columns).Updates(product).Error; err != nil {
			return nil, apperr.Internal(err, "failed to update product")
		}
	}

	return s.GetProduct(ctx, id)
}

// DeleteProduct soft-deletes a product that has no open orders.
func (s *ProductService) DeleteProduct(ctx context.Context, id, farmerID uuid.UUID) error {
	product, err := s.ownedProduct(ctx, id, farmerID)
	if err != nil {
		return err
	}

	var open int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("product_id = ? AND status IN ?", id, []models.OrderStatus{
			models.OrderStatusPending, models.OrderStatusAccepted, models.OrderStatusShipped,
		}).
		Count(&open).Error; err != nil {
		return apperr.Internal(err, "failed to check open orders")
	}
	if open > 0 {
		return apperr.Conflict(i18n.KeyProductOpenOrders)
	}

	if err := s.db.WithContext(ctx).Delete(product).Error; err != nil {
		return apperr.Internal(err, "failed to delete product")
	}
	return nil
}

// RecordView increments the view counter and returns the new value.
func (s *ProductService) RecordView(ctx context.Context, id uuid.UUID) (int64, error) {
	db := s.db.WithContext(ctx)
	result := db.Model(&models.Product{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return 0, apperr.Internal(result.Error, "failed to record view")
	}
	if result.RowsAffected == 0 {
		return 0, apperr.NotFound(i18n.KeyProductNotFound)
	}

	var product models.Product
	if err := db.Select("views").First(&product, "id = ?", id).Error; err != nil {
		return 0, apperr.Internal(err, "failed to load views")
	}
	return product.Views, nil
}

// AddReview stores one review per user and product and refreshes the
// product's average rating and review count.
func (s *ProductService) AddReview(ctx context.Context, productID, userID uuid.UUID, req *ReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperr.Validation(err, "validation failed")
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id").First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(i18n.KeyProductNotFound)
			}
			return apperr.Internal(err, "failed to load product")
		}

		var existing int64
		if err := tx.Model(&models.Review{}).
			Where("product_id = ? AND user_id = ?", productID, userID).
			Count(&existing).Error; err != nil {
			return apperr.Internal(err, "failed to check reviews")
		}
		if existing > 0 {
			return apperr.Conflict("you have already reviewed this product")
		}

		if err := tx.Create(review).Error; err != nil {
			return apperr.Internal(err, "failed to create review")
		}

		var stats struct {
			Average float64
			Count   int64
		}
		if err := tx.Model(&models.Review{}).
			Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
			Where("product_id = ?", productID).
			Scan(&stats).Error; err != nil {
			return apperr.Internal(err, "failed to aggregate reviews")
		}

		return tx.Model(&models.Product{}).Where("id = ?", productID).Updates(map[string]interface{}{
			"rating":       stats.Average,
			"review_count": stats.Count,
		}).Error
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			return nil, apperr.Internal(err, "failed to add review")
		}
		return nil, err
	}

	return review, nil
}

func (s *ProductService) ownedProduct(ctx context.Context, id, farmerID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(i18n.KeyProductNotFound)
		}
		return nil, apperr.Internal(err, "failed to load product")
	}
	if product.FarmerID != farmerID {
		return nil, apperr.Unauthorized(i18n.KeyProductNotOwner)
	}
	return &product, nil
}
