package db

import (
	"nutriscan/internal/logger"
	"nutriscan/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed 写入初始成分数据，已存在的同名成分跳过
func Seed(gdb *gorm.DB) error {
	var count int64
	if err := gdb.Model(&models.Ingredient{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.L.Info("ingredients already seeded, skipping")
		return nil
	}

	ingredients := []models.Ingredient{
		{
			Name:        "High Fructose Corn Syrup",
			Category:    "sweetener",
			RiskLevel:   models.RiskHigh,
			Description: "Corn-derived liquid sweetener linked to metabolic health concerns.",
			CommonUses:  []string{"soft drinks", "baked goods", "condiments"},
			Aliases:     []string{"HFCS", "glucose-fructose syrup"},
		},
		{
			Name:         "Sodium Benzoate",
			Category:     "preservative",
			RiskLevel:    models.RiskMedium,
			Description:  "Common preservative with some safety concerns when combined with vitamin C.",
			AllergenInfo: "May trigger reactions in people sensitive to benzoates.",
			CommonUses:   []string{"soft drinks", "pickles", "sauces"},
			Aliases:      []string{"E211"},
		},
		{
			Name:        "Natural Vanilla Extract",
			Category:    "flavoring",
			RiskLevel:   models.RiskLow,
			Description: "Natural flavoring generally recognized as safe.",
			CommonUses:  []string{"desserts", "beverages"},
		},
		{
			Name:         "Soy Lecithin",
			Category:     "emulsifier",
			RiskLevel:    models.RiskLow,
			Description:  "Emulsifier extracted from soybeans.",
			AllergenInfo: "Derived from soy.",
			CommonUses:   []string{"chocolate", "margarine"},
			Aliases:      []string{"E322"},
		},
		{
			Name:        "Caffeine",
			Category:    "stimulant",
			RiskLevel:   models.RiskMedium,
			Description: "Stimulant found naturally in coffee and tea and added to energy drinks.",
			CommonUses:  []string{"energy drinks", "colas"},
		},
	}

	if err := gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(&ingredients).Error; err != nil {
		return err
	}
	logger.L.Info("initial ingredients created", zap.Int("count", len(ingredients)))
	return nil
}
