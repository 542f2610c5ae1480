package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"nutriscan/internal/apperr"
	"nutriscan/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxIngredientNameLength = 128

type CreateIngredientInput struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	RiskLevel    string   `json:"riskLevel"`
	AllergenInfo string   `json:"allergenInfo"`
	CommonUses   []string `json:"commonUses"`
	Aliases      []string `json:"aliases"`
}

type IngredientService struct {
	db *gorm.DB
}

func NewIngredientService(db *gorm.DB) *IngredientService {
	return &IngredientService{db: db}
}

func (s *IngredientService) Get(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ing models.Ingredient
	err := s.db.WithContext(ctx).First(&ing, id).Error
	if isNotFound(err) {
		return nil, apperr.NotFound("ingredient %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load ingredient: %w", err)
	}
	return &ing, nil
}

// Create 新建成分，名称唯一
func (s *IngredientService) Create(ctx context.Context, in CreateIngredientInput) (*models.Ingredient, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidArgument("name is required")
	}
	if utf8.RuneCountInString(name) > maxIngredientNameLength {
		return nil, apperr.InvalidArgument("name must be at most %d characters", maxIngredientNameLength)
	}
	risk := strings.ToLower(strings.TrimSpace(in.RiskLevel))
	if risk == "" {
		risk = models.RiskUnknown
	}
	if !models.ValidRiskLevel(risk) {
		return nil, apperr.InvalidArgument("riskLevel must be one of low, medium, high, unknown")
	}

	ing := &models.Ingredient{
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		Category:     strings.TrimSpace(in.Category),
		RiskLevel:    risk,
		AllergenInfo: strings.TrimSpace(in.AllergenInfo),
		CommonUses:   in.CommonUses,
		Aliases:      in.Aliases,
	}
	if err := s.db.WithContext(ctx).Create(ing).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperr.Conflict("ingredient %q already exists", name)
		}
		return nil, fmt.Errorf("create ingredient: %w", err)
	}
	return ing, nil
}

// Trending 讨论最多的成分
func (s *IngredientService) Trending(ctx context.Context, limit int) ([]models.Ingredient, error) {
	items := make([]models.Ingredient, 0)
	err := s.db.WithContext(ctx).
		Order("discussion_count DESC").
		Order("name ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("trending ingredients: %w", err)
	}
	return items, nil
}

// EnsureByNames creates missing ingredients by name and returns all of them.
func (s *IngredientService) EnsureByNames(ctx context.Context, names []string) ([]models.Ingredient, error) {
	seen := make(map[string]bool, len(names))
	rows := make([]models.Ingredient, 0, len(names))
	unique := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || utf8.RuneCountInString(n) > maxIngredientNameLength || seen[strings.ToLower(n)] {
			continue
		}
		seen[strings.ToLower(n)] = true
		unique = append(unique, n)
		rows = append(rows, models.Ingredient{Name: n, RiskLevel: models.RiskUnknown})
	}
	if len(rows) == 0 {
		return []models.Ingredient{}, nil
	}

	db := s.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("ensure ingredients: %w", err)
	}

	out := make([]models.Ingredient, 0, len(unique))
	if err := db.Where("name IN ?", unique).Order("name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}
	return out, nil
}
