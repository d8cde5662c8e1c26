// Package phone canonicalizes phone numbers stored on contacts.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for national numbers when no valid region is given.
const DefaultRegion = "US"

// NormalizeE164 returns the E.164 form of input ("+12024561111"). National
// numbers are read in region. Provider exports often carry "tel:" URIs or a
// "00" international prefix, and both are accepted. Input that does not
// parse to a valid number is returned trimmed so nothing the user typed is
// lost.
func NormalizeE164(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	candidate := strings.TrimPrefix(strings.TrimPrefix(trimmed, "tel:"), "TEL:")
	if rest, ok := strings.CutPrefix(candidate, "00"); ok {
		candidate = "+" + rest
	}

	number, err := phonenumbers.Parse(candidate, regionOrDefault(region))
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func regionOrDefault(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if phonenumbers.GetCountryCodeForRegion(region) == 0 {
		return DefaultRegion
	}
	return region
}
