package qnutri

import (
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/shopspring/decimal"
)

// Macros is an energy/macronutrient quadruple: kcal and grams of carbohydrate,
// protein and fat.
type Macros struct {
	Kcal decimal.Decimal `json:"kcal"`
	Car  decimal.Decimal `json:"car"`
	Prot decimal.Decimal `json:"prot"`
	Fat  decimal.Decimal `json:"fat"`
}

// Add returns the component-wise sum.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Kcal: m.Kcal.Add(o.Kcal),
		Car:  m.Car.Add(o.Car),
		Prot: m.Prot.Add(o.Prot),
		Fat:  m.Fat.Add(o.Fat),
	}
}

// Clamp caps every component at MaxTotal and reports whether any was capped.
func (m Macros) Clamp() (Macros, bool) {
	clamped := false
	c := func(d decimal.Decimal) decimal.Decimal {
		if d.GreaterThan(MaxTotal) {
			clamped = true
			return MaxTotal
		}
		return d
	}
	out := Macros{Kcal: c(m.Kcal), Car: c(m.Car), Prot: c(m.Prot), Fat: c(m.Fat)}
	return out, clamped
}

// Validate rejects negative components.
func (m Macros) Validate() error {
	for name, d := range map[string]decimal.Decimal{"kcal": m.Kcal, "car": m.Car, "prot": m.Prot, "fat": m.Fat} {
		if d.IsNegative() {
			return qerr.Newf(qerr.CodeInvalidInput, "%s must not be negative, got %s", name, d)
		}
	}
	return nil
}

// Over reports whether consumed energy exceeds the target energy.
func Over(total, target Macros) bool {
	return total.Kcal.GreaterThan(target.Kcal)
}
