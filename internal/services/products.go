package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"nutriscan/internal/apperr"
	"nutriscan/internal/catalog"
	"nutriscan/internal/logger"
	"nutriscan/internal/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var barcodePattern = regexp.MustCompile(`^[0-9]{8,14}$`)

// ProductLookup is satisfied by catalog.Client.
type ProductLookup interface {
	Lookup(ctx context.Context, barcode string) (*catalog.Product, error)
}

// ProductService 扫码查询：本地没有就去外部目录查，查不到存占位商品
type ProductService struct {
	db          *gorm.DB
	lookup      ProductLookup
	ingredients *IngredientService
}

func NewProductService(db *gorm.DB, lookup ProductLookup, ingredients *IngredientService) *ProductService {
	return &ProductService{db: db, lookup: lookup, ingredients: ingredients}
}

func (s *ProductService) LookupByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	if !barcodePattern.MatchString(barcode) {
		return nil, apperr.InvalidArgument("barcode must be 8 to 14 digits")
	}

	if p, err := s.findByBarcode(ctx, barcode); err != nil || p != nil {
		return p, err
	}

	product := s.fetch(ctx, barcode)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "barcode"}}, DoNothing: true}).
		Create(product).Error
	if err != nil {
		return nil, fmt.Errorf("store product: %w", err)
	}

	// 并发未命中时以先写入的为准
	stored, err := s.findByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("product %s vanished after insert", barcode)
	}

	if s.ingredients != nil && len(stored.Ingredients) > 0 {
		names := make([]string, 0, len(stored.Ingredients))
		for _, ing := range stored.Ingredients {
			names = append(names, ing.Name)
		}
		if _, err := s.ingredients.EnsureByNames(ctx, names); err != nil {
			logger.L.Warn("ensure product ingredients failed", zap.String("barcode", barcode), zap.Error(err))
		}
	}
	return stored, nil
}

func (s *ProductService) findByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Where("barcode = ?", barcode).First(&p).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	return &p, nil
}

// fetch never fails: unknown barcodes and catalog outages yield a placeholder.
func (s *ProductService) fetch(ctx context.Context, barcode string) *models.Product {
	placeholder := &models.Product{Barcode: barcode, Name: "Unknown product", NutriScore: "none"}
	if s.lookup == nil {
		return placeholder
	}

	cp, err := s.lookup.Lookup(ctx, barcode)
	if err != nil {
		if !errors.Is(err, catalog.ErrProductNotFound) {
			logger.L.Warn("product catalog lookup failed", zap.String("barcode", barcode), zap.Error(err))
		}
		return placeholder
	}

	p := &models.Product{
		Barcode:     barcode,
		Name:        cp.Name,
		Brand:       cp.Brand,
		ImageURL:    cp.ImageURL,
		NutriScore:  cp.NutriScore,
		Ingredients: cp.Ingredients,
	}
	if len(cp.Nutriments) > 0 {
		p.NutritionData = datatypes.JSON(cp.Nutriments)
	}
	return p
}
