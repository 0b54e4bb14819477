package storage

import (
	"fmt"
	"math"
	"strconv"
)

// MinRating and MaxRating bound a single rating value
const (
	MinRating = 1
	MaxRating = 5
)

// AverageRating formats the mean of count ratings summing to sum, rounded
// half-up to one decimal. No ratings yields "0".
func AverageRating(sum, count int64) string {
	if count <= 0 {
		return "0"
	}
	tenths := int64(math.Floor(float64(sum*10)/float64(count) + 0.5))
	return strconv.FormatInt(tenths/10, 10) + "." + strconv.FormatInt(tenths%10, 10)
}

// ValidateRating checks the rating value range
func ValidateRating(value int) error {
	if value < MinRating || value > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, MinRating, MaxRating)
	}
	return nil
}
