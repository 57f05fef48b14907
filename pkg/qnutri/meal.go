package qnutri

import (
	"fmt"
	"strings"
	"time"

	"github.com/quatton/qwell/pkg/qerr"
)

// MealType classifies a meal entry by the time it was eaten.
type MealType int16

const (
	Breakfast MealType = iota
	Lunch
	Dinner
	Other
)

func (t MealType) String() string {
	switch t {
	case Breakfast:
		return "breakfast"
	case Lunch:
		return "lunch"
	case Dinner:
		return "dinner"
	default:
		return "other"
	}
}

// ParseMealType accepts a meal name or its numeric id.
func ParseMealType(s string) (MealType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "breakfast", "0":
		return Breakfast, nil
	case "lunch", "1":
		return Lunch, nil
	case "dinner", "2":
		return Dinner, nil
	case "other", "3":
		return Other, nil
	}
	return 0, qerr.Newf(qerr.CodeInvalidInput, "unknown meal type %q", s)
}

func (t MealType) Valid() bool { return t >= Breakfast && t <= Other }

// MealTypeAt buckets a wall-clock time: 06-08 breakfast, 11-13 lunch,
// 17-19 dinner, anything else other. Bounds are inclusive hours.
func MealTypeAt(t time.Time) MealType {
	switch h := t.Hour(); {
	case h >= 6 && h <= 8:
		return Breakfast
	case h >= 11 && h <= 13:
		return Lunch
	case h >= 17 && h <= 19:
		return Dinner
	}
	return Other
}

// AgeOn returns whole years between birthday and now.
func AgeOn(birthday, now time.Time) int {
	age := now.Year() - birthday.Year()
	if now.Month() < birthday.Month() || (now.Month() == birthday.Month() && now.Day() < birthday.Day()) {
		age--
	}
	return age
}

// ExifTimeLayout is the timestamp format EXIF uses for DateTimeOriginal.
const ExifTimeLayout = "2006:01:02 15:04:05"

// ParseDay accepts a calendar day as "2006-01-02", "2006:01:02" or a full EXIF
// timestamp and returns midnight UTC of that day.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 10 {
		day := strings.ReplaceAll(s[:10], ":", "-")
		if t, err := time.Parse(time.DateOnly, day); err == nil {
			return t, nil
		}
	}
	return time.Time{}, qerr.New(qerr.CodeInvalidInput, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s))
}

// Day truncates t to its calendar day in t's location, expressed in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
