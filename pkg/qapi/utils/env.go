package utils

import (
	"os"
	"strings"
)

const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// Normalize maps ENVIRONMENT aliases onto the canonical names. Unknown
// values pass through lowercased.
func Normalize(env string) string {
	switch e := strings.ToLower(strings.TrimSpace(env)); e {
	case "", "dev", Development:
		return Development
	case "prod", Production:
		return Production
	case "testing", Test:
		return Test
	default:
		return e
	}
}

// GetEnvironment returns the canonical name of the current environment.
func GetEnvironment() string {
	return Normalize(os.Getenv("ENVIRONMENT"))
}

func IsProd() bool { return GetEnvironment() == Production }

func IsDev() bool { return GetEnvironment() == Development }
