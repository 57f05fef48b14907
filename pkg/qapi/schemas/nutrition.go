package schemas

// Macros is an energy/macronutrient quadruple.
type Macros struct {
	Kcal float64 `json:"kcal" doc:"Energy in kcal"`
	Car  float64 `json:"car" doc:"Carbohydrate in g"`
	Prot float64 `json:"prot" doc:"Protein in g"`
	Fat  float64 `json:"fat" doc:"Fat in g"`
}

// DailySummary is one day's running totals judged against the target.
type DailySummary struct {
	Date           string  `json:"date" format:"date"`
	Total          Macros  `json:"total" doc:"Sums of the day's meals, each capped at 9999.99"`
	Recommendation Macros  `json:"recommendation" doc:"Daily target"`
	Condition      bool    `json:"condition" doc:"Whether consumed energy exceeds the target"`
	HistoryIDs     []int64 `json:"history_ids" doc:"Meal entries folded into the totals"`
}

// MealEntry is one recorded meal with its catalog data.
type MealEntry struct {
	HistoryID    int64  `json:"history_id"`
	MealTypeID   int    `json:"meal_type_id" enum:"0,1,2,3" doc:"0 breakfast, 1 lunch, 2 dinner, 3 other"`
	MealTypeName string `json:"meal_type_name" example:"lunch"`
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name"`
	Food         Macros `json:"food"`
	ImageURL     string `json:"image_url,omitempty"`
	Date         string `json:"date" format:"date"`
}

// SaveMealRequest records a classified meal.
type SaveMealRequest struct {
	CategoryID int    `json:"category_id" minimum:"0" doc:"Food category from the predict endpoint"`
	MealTypeID int    `json:"meal_type_id" minimum:"0" maximum:"3" doc:"0 breakfast, 1 lunch, 2 dinner, 3 other"`
	ImageURL   string `json:"image_url,omitempty" doc:"Image key from the predict endpoint"`
	Date       string `json:"date" example:"2024-03-15" doc:"YYYY-MM-DD, or an EXIF timestamp YYYY:MM:DD HH:MM:SS"`
}

// SaveMealResponse is the day after the meal was recorded.
type SaveMealResponse struct {
	Message string       `json:"message" example:"meal_list information saved successfully"`
	Meals   []MealEntry  `json:"meals"`
	Summary DailySummary `json:"summary"`
}

// WellnessImageInfo is what a meal photo was classified as.
type WellnessImageInfo struct {
	Date           string `json:"date" example:"2024:03:15 12:31:07" doc:"Capture time, EXIF layout"`
	MealType       string `json:"meal_type" example:"lunch"`
	MealTypeID     int    `json:"meal_type_id"`
	CategoryID     int    `json:"category_id"`
	CategoryName   string `json:"category_name"`
	Food           Macros `json:"food"`
	Recommendation Macros `json:"recommendation"`
	ImageURL       string `json:"image_url" doc:"Stored image key, pass it back when saving the meal"`
	PreviewURL     string `json:"preview_url,omitempty" doc:"Time-limited download URL"`
}
