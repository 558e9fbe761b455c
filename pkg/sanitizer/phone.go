package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Regions tried in order when parsing a phone number without a country
// prefix. The studio's customer base is local with some US visitors.
var supportedRegions = []string{"IL", "US"}

// NormalizePhone parses a customer phone number and renders it in E.164.
// Returns "" when the number cannot be parsed in any supported region;
// validation then rejects the request.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil {
			continue
		}
		if phonenumbers.IsValidNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return ""
}
