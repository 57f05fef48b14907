package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/quatton/qwell/pkg/qnutri"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Recommendation struct {
	bun.BaseModel `bun:"table:app.recommendations,alias:r"`

	UserID  uuid.UUID       `bun:"type:uuid,pk"`
	RecKcal decimal.Decimal `bun:"rec_kcal,type:numeric(7,2),notnull"`
	RecCar  decimal.Decimal `bun:"rec_car,type:numeric(7,2),notnull"`
	RecProt decimal.Decimal `bun:"rec_prot,type:numeric(7,2),notnull"`
	RecFat  decimal.Decimal `bun:"rec_fat,type:numeric(7,2),notnull"`

	UpdatedAt time.Time `bun:",notnull"`
}

func (r *Recommendation) Macros() qnutri.Macros {
	return qnutri.Macros{Kcal: r.RecKcal, Car: r.RecCar, Prot: r.RecProt, Fat: r.RecFat}
}

func (r *Recommendation) SetMacros(m qnutri.Macros) {
	r.RecKcal, r.RecCar, r.RecProt, r.RecFat = m.Kcal, m.Car, m.Prot, m.Fat
}

// DailyTotal is the running per-day aggregate of a user's meals.
type DailyTotal struct {
	bun.BaseModel `bun:"table:app.daily_totals,alias:dt"`

	ID         int64           `bun:",pk,autoincrement"`
	UserID     uuid.UUID       `bun:"type:uuid,notnull,unique:daily_totals_user_today"`
	Today      time.Time       `bun:"type:date,notnull,unique:daily_totals_user_today"`
	TotalKcal  decimal.Decimal `bun:"type:numeric(6,2),notnull"`
	TotalCar   decimal.Decimal `bun:"type:numeric(6,2),notnull"`
	TotalProt  decimal.Decimal `bun:"type:numeric(6,2),notnull"`
	TotalFat   decimal.Decimal `bun:"type:numeric(6,2),notnull"`
	Condition  bool            `bun:",notnull"`
	HistoryIDs []int64         `bun:",array"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

func (d *DailyTotal) Macros() qnutri.Macros {
	return qnutri.Macros{Kcal: d.TotalKcal, Car: d.TotalCar, Prot: d.TotalProt, Fat: d.TotalFat}
}

func (d *DailyTotal) SetMacros(m qnutri.Macros) {
	d.TotalKcal, d.TotalCar, d.TotalProt, d.TotalFat = m.Kcal, m.Car, m.Prot, m.Fat
}

// Food is one entry of the classifier's category catalog.
type Food struct {
	bun.BaseModel `bun:"table:app.foods,alias:f"`

	CategoryID   int             `bun:",pk"`
	CategoryName string          `bun:",notnull"`
	FoodKcal     decimal.Decimal `bun:"type:numeric(7,2),notnull"`
	FoodCar      decimal.Decimal `bun:"type:numeric(7,2),notnull"`
	FoodProt     decimal.Decimal `bun:"type:numeric(7,2),notnull"`
	FoodFat      decimal.Decimal `bun:"type:numeric(7,2),notnull"`
}

func (f *Food) Macros() qnutri.Macros {
	return qnutri.Macros{Kcal: f.FoodKcal, Car: f.FoodCar, Prot: f.FoodProt, Fat: f.FoodFat}
}

// History is an immutable meal entry.
type History struct {
	bun.BaseModel `bun:"table:app.histories,alias:h"`

	ID         int64           `bun:",pk,autoincrement"`
	UserID     uuid.UUID       `bun:"type:uuid,notnull"`
	CategoryID int             `bun:",notnull"`
	MealType   qnutri.MealType `bun:"type:smallint,notnull"`
	ImageURL   string          `bun:",nullzero"`
	Date       time.Time       `bun:"type:date,notnull"`
	CreatedAt  time.Time       `bun:",nullzero,notnull,default:current_timestamp"`

	Food *Food `bun:"rel:belongs-to,join:category_id=category_id"`
}
