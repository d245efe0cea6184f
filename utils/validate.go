package utils

import (
	"regexp"
	"strings"

	"aasaan-server/models"
)

var (
	nameRegex = regexp.MustCompile(`^[\p{L}\p{M} .'-]{2,100}$`)
	tagRegex  = regexp.MustCompile(`^[a-zA-Z0-9 ]{1,21}$`)
)

// ValidatePhoneNumber validates phone number format: +91 followed by 10 digits.
func ValidatePhoneNumber(phoneNumber string) bool {
	cleaned := strings.ReplaceAll(phoneNumber, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")

	if !strings.HasPrefix(cleaned, "+91") {
		return false
	}

	numberPart := cleaned[3:]
	if len(numberPart) != 10 {
		return false
	}

	for _, char := range numberPart {
		if char < '0' || char > '9' {
			return false
		}
	}

	return true
}

// ValidateName validates a display name
func ValidateName(name string) bool {
	return nameRegex.MatchString(strings.TrimSpace(name))
}

// ValidateTag validates a single work-request tag: alphanumeric plus spaces,
// at most 21 characters.
func ValidateTag(tag string) bool {
	return tagRegex.MatchString(tag)
}

// ValidateTags validates every tag in the slice
func ValidateTags(tags []string) bool {
	for _, tag := range tags {
		if !ValidateTag(tag) {
			return false
		}
	}
	return true
}

// IsLocationValid checks that coordinates are within valid ranges
func IsLocationValid(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ValidateRadius checks membership in the fixed radius enum
func ValidateRadius(radiusKm int) bool {
	for _, r := range models.AllowedRadiusKm {
		if radiusKm == r {
			return true
		}
	}
	return false
}

// SanitizeInput sanitizes user input to prevent injection attacks
func SanitizeInput(input string) string {
	input = strings.ReplaceAll(input, "<", "&lt;")
	input = strings.ReplaceAll(input, ">", "&gt;")
	input = strings.ReplaceAll(input, "\"", "&quot;")
	input = strings.ReplaceAll(input, "'", "&#x27;")

	return strings.TrimSpace(input)
}
