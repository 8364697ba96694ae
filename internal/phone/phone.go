// Package phone validates operator-entered line numbers against a regional
// numbering plan and renders them as canonical national dialing strings.
package phone

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
)

// DefaultRegion is the numbering plan of the recharge portal.
const DefaultRegion = "FR"

// Validator normalizes numbers for a single region. It is stateless and safe
// for concurrent use.
type Validator struct {
	region string
}

// NewValidator returns a Validator for the given ISO 3166-1 region code.
func NewValidator(region string) (*Validator, error) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if phonenumbers.GetCountryCodeForRegion(region) == 0 {
		return nil, fmt.Errorf("unsupported phone region %q", region)
	}
	return &Validator{region: region}, nil
}

// Region returns the validator's region code.
func (v *Validator) Region() string { return v.region }

// Normalize parses raw under the region's rules and returns the national
// format with every separator removed, e.g. "+33 6 12 34 56 78" becomes
// "0612345678". Numbers that are not valid lines for the region yield a
// *schemas.ValidationError carrying the national display format.
func (v *Validator) Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	num, err := phonenumbers.Parse(trimmed, v.region)
	if err != nil {
		// Unparseable input has no national rendering; report it as typed.
		return "", &schemas.ValidationError{Number: trimmed}
	}
	if !phonenumbers.IsValidNumberForRegion(num, v.region) {
		return "", &schemas.ValidationError{Number: phonenumbers.Format(num, phonenumbers.NATIONAL)}
	}

	return digitsOnly(phonenumbers.Format(num, phonenumbers.NATIONAL)), nil
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
