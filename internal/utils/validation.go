package utils

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if math.IsNaN(lat) || lat < -90.0 || lat > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lng float64) error {
	if math.IsNaN(lng) || lng < -180.0 || lng > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateCoordinate checks a lat/lng pair and records problems under
// latKey and lngKey in fieldErrors. The map is created when nil.
func ValidateCoordinate(lat, lng float64, latKey, lngKey string, fieldErrors map[string][]string) map[string][]string {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	if err := ValidateLatitude(lat); err != nil {
		fieldErrors[latKey] = append(fieldErrors[latKey], err.Error())
	}
	if err := ValidateLongitude(lng); err != nil {
		fieldErrors[lngKey] = append(fieldErrors[lngKey], err.Error())
	}

	return fieldErrors
}

// ValidateLimit validates a result limit against an inclusive range.
func ValidateLimit(limit, min, max int) error {
	if limit < min || limit > max {
		return fmt.Errorf("limit must be between %d and %d", min, max)
	}
	return nil
}

// ParseIntParam retrieves an int from the query parameters. A missing key
// yields def. An unparsable value yields def and a field error.
func ParseIntParam(params url.Values, key string, def int, fieldErrors map[string][]string) (int, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return def, fieldErrors
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
		return def, fieldErrors
	}
	return n, fieldErrors
}
