// Package qnutri holds the pure nutrition arithmetic: daily targets from body
// metrics, macro sums and their storage bounds.
package qnutri

import (
	"strings"

	"github.com/quatton/qwell/pkg/qerr"
	"github.com/shopspring/decimal"
)

// Gender selects the Harris-Benedict coefficient set.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// ParseGender accepts "male"/"female" in any case, and the legacy 0/1 codes.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "0":
		return Male, nil
	case "female", "f", "1":
		return Female, nil
	}
	return "", qerr.Newf(qerr.CodeInvalidInput, "unknown gender %q", s)
}

func (g Gender) Valid() bool { return g == Male || g == Female }

// Metrics are the body measurements a recommendation is derived from.
// Weight is in kilograms, Height in centimetres, Age in whole years.
type Metrics struct {
	Weight decimal.Decimal
	Height decimal.Decimal
	Age    int
	Gender Gender
}

const (
	// MaxMealsPerDay bounds the meal entries recorded per user per day.
	MaxMealsPerDay = 10

	places = 2
)

var (
	// MaxTotal is the largest value a daily sum column can hold (numeric(6,2)).
	MaxTotal = decimal.RequireFromString("9999.99")

	activityFactor = decimal.RequireFromString("1.55")

	maleBase   = decimal.RequireFromString("88.362")
	maleWeight = decimal.RequireFromString("13.397")
	maleHeight = decimal.RequireFromString("4.799")
	maleAge    = decimal.RequireFromString("5.677")

	femaleBase   = decimal.RequireFromString("447.593")
	femaleWeight = decimal.RequireFromString("9.247")
	femaleHeight = decimal.RequireFromString("3.098")
	femaleAge    = decimal.RequireFromString("4.330")

	carbShare = decimal.RequireFromString("0.5")
	protShare = decimal.RequireFromString("0.3")
	fatShare  = decimal.RequireFromString("0.2")

	kcalPerGramCarb = decimal.NewFromInt(4)
	kcalPerGramProt = decimal.NewFromInt(4)
	kcalPerGramFat  = decimal.NewFromInt(9)
)

// BMR returns the unrounded Harris-Benedict basal metabolic rate.
func BMR(m Metrics) (decimal.Decimal, error) {
	if err := m.validate(); err != nil {
		return decimal.Zero, err
	}
	age := decimal.NewFromInt(int64(m.Age))
	if m.Gender == Male {
		return maleBase.
			Add(maleWeight.Mul(m.Weight)).
			Add(maleHeight.Mul(m.Height)).
			Sub(maleAge.Mul(age)), nil
	}
	return femaleBase.
		Add(femaleWeight.Mul(m.Weight)).
		Add(femaleHeight.Mul(m.Height)).
		Sub(femaleAge.Mul(age)), nil
}

// Recommend computes daily kcal and a 5:3:2 carbohydrate/protein/fat split.
// The split is taken from the unrounded kcal and every value is then rounded
// half-up to two places.
func Recommend(m Metrics) (Macros, error) {
	bmr, err := BMR(m)
	if err != nil {
		return Macros{}, err
	}

	kcal := bmr.Mul(activityFactor)
	if !kcal.IsPositive() {
		return Macros{}, qerr.Newf(qerr.CodeInvalidInput, "metrics yield non-positive energy target %s", kcal.StringFixed(places))
	}

	return Macros{
		Kcal: kcal.Round(places),
		Car:  kcal.Mul(carbShare).Div(kcalPerGramCarb).Round(places),
		Prot: kcal.Mul(protShare).Div(kcalPerGramProt).Round(places),
		Fat:  kcal.Mul(fatShare).Div(kcalPerGramFat).Round(places),
	}, nil
}

func (m Metrics) validate() error {
	switch {
	case !m.Weight.IsPositive():
		return qerr.Newf(qerr.CodeInvalidInput, "weight must be positive, got %s", m.Weight)
	case !m.Height.IsPositive():
		return qerr.Newf(qerr.CodeInvalidInput, "height must be positive, got %s", m.Height)
	case m.Age <= 0:
		return qerr.Newf(qerr.CodeInvalidInput, "age must be positive, got %d", m.Age)
	case !m.Gender.Valid():
		return qerr.Newf(qerr.CodeInvalidInput, "unknown gender %q", m.Gender)
	}
	return nil
}
