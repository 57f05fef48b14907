package db

import (
	"fmt"

	"github.com/quatton/qwell/pkg/db/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type foodRow struct {
	CategoryID   int    `mapstructure:"category_id"`
	CategoryName string `mapstructure:"category_name"`
	Kcal         string `mapstructure:"kcal"`
	Car          string `mapstructure:"car"`
	Prot         string `mapstructure:"prot"`
	Fat          string `mapstructure:"fat"`
}

// LoadFoods reads a food catalog file. Any format viper understands works;
// the catalog lives under a top-level "foods" list.
func LoadFoods(path string) ([]models.Food, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading food catalog %s: %w", path, err)
	}

	var rows []foodRow
	if err := v.UnmarshalKey("foods", &rows); err != nil {
		return nil, fmt.Errorf("decoding food catalog: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("food catalog %s has no foods", path)
	}

	seen := make(map[int]bool, len(rows))
	foods := make([]models.Food, 0, len(rows))
	for i, r := range rows {
		if r.CategoryName == "" {
			return nil, fmt.Errorf("food %d: category_name is required", i)
		}
		if seen[r.CategoryID] {
			return nil, fmt.Errorf("food %d: duplicate category_id %d", i, r.CategoryID)
		}
		seen[r.CategoryID] = true

		f := models.Food{CategoryID: r.CategoryID, CategoryName: r.CategoryName}
		for _, field := range []struct {
			name string
			raw  string
			dst  *decimal.Decimal
		}{
			{"kcal", r.Kcal, &f.FoodKcal},
			{"car", r.Car, &f.FoodCar},
			{"prot", r.Prot, &f.FoodProt},
			{"fat", r.Fat, &f.FoodFat},
		} {
			d, err := decimal.NewFromString(field.raw)
			if err != nil {
				return nil, fmt.Errorf("food %d (%s): invalid %s %q", i, r.CategoryName, field.name, field.raw)
			}
			if d.IsNegative() {
				return nil, fmt.Errorf("food %d (%s): %s must not be negative", i, r.CategoryName, field.name)
			}
			*field.dst = d
		}
		foods = append(foods, f)
	}
	return foods, nil
}
