package routes

import (
	"time"

	"github.com/quatton/qwell/pkg/db/models"
	"github.com/quatton/qwell/pkg/qapi/schemas"
	"github.com/quatton/qwell/pkg/qapi/services/authconfig"
	"github.com/quatton/qwell/pkg/qapi/services/intake"
	"github.com/quatton/qwell/pkg/qnutri"
)

func macrosOut(m qnutri.Macros) schemas.Macros {
	return schemas.Macros{
		Kcal: m.Kcal.InexactFloat64(),
		Car:  m.Car.InexactFloat64(),
		Prot: m.Prot.InexactFloat64(),
		Fat:  m.Fat.InexactFloat64(),
	}
}

func userOut(u *models.User) schemas.User {
	return schemas.User{
		ID:        u.ID.String(),
		Email:     u.Email,
		Nickname:  u.Nickname,
		Birthday:  u.Birthday.Format(time.DateOnly),
		Age:       u.Age,
		Gender:    string(u.Gender),
		Weight:    u.Weight.InexactFloat64(),
		Height:    u.Height.InexactFloat64(),
		UpdatedAt: u.UpdatedAt,
	}
}

func tokensOut(p authconfig.TokenPair) schemas.TokenPair {
	return schemas.TokenPair{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		TokenType:        p.TokenType,
		ExpiresAt:        p.AccessExpiresAt,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}

func summaryOut(s *intake.Summary) schemas.DailySummary {
	ids := s.Total.HistoryIDs
	if ids == nil {
		ids = []int64{}
	}
	return schemas.DailySummary{
		Date:           s.Total.Today.Format(time.DateOnly),
		Total:          macrosOut(s.Total.Macros()),
		Recommendation: macrosOut(s.Recommendation.Macros()),
		Condition:      s.Total.Condition,
		HistoryIDs:     ids,
	}
}

func mealsOut(meals []models.History) []schemas.MealEntry {
	out := make([]schemas.MealEntry, 0, len(meals))
	for _, m := range meals {
		e := schemas.MealEntry{
			HistoryID:    m.ID,
			MealTypeID:   int(m.MealType),
			MealTypeName: m.MealType.String(),
			CategoryID:   m.CategoryID,
			ImageURL:     m.ImageURL,
			Date:         m.Date.Format(time.DateOnly),
		}
		if m.Food != nil {
			e.CategoryName = m.Food.CategoryName
			e.Food = macrosOut(m.Food.Macros())
		}
		out = append(out, e)
	}
	return out
}
