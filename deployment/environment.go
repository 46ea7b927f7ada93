package deployment

import "strings"

// Category is the Compass environment category a deployment is filed under
type Category string

// Environment categories accepted by Compass
const (
	CategoryProduction  Category = "PRODUCTION"
	CategoryStaging     Category = "STAGING"
	CategoryTesting     Category = "TESTING"
	CategoryDevelopment Category = "DEVELOPMENT"
	CategoryUnmapped    Category = "UNMAPPED"
)

// Categories returns all valid environment categories
func Categories() []Category {
	return []Category{
		CategoryProduction,
		CategoryStaging,
		CategoryTesting,
		CategoryDevelopment,
		CategoryUnmapped,
	}
}

// Classify maps a free-form environment name onto a Category. Matching is
// case-insensitive; anything unrecognized is UNMAPPED.
func Classify(environment string) Category {
	normalized := Category(strings.ToUpper(environment))
	for _, category := range Categories() {
		if normalized == category {
			return category
		}
	}
	return CategoryUnmapped
}
