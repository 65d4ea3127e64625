package enums

import "fmt"

// CompanySize buckets a corporate account by head count.
type CompanySize string

const (
	CompanySize1To10     CompanySize = "1-10"
	CompanySize11To50    CompanySize = "11-50"
	CompanySize51To200   CompanySize = "51-200"
	CompanySize201To500  CompanySize = "201-500"
	CompanySize501To1000 CompanySize = "501-1000"
	CompanySize1000Plus  CompanySize = "1000+"
)

var validCompanySizes = []CompanySize{
	CompanySize1To10,
	CompanySize11To50,
	CompanySize51To200,
	CompanySize201To500,
	CompanySize501To1000,
	CompanySize1000Plus,
}

// String implements fmt.Stringer.
func (c CompanySize) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CompanySize.
func (c CompanySize) IsValid() bool {
	for _, candidate := range validCompanySizes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCompanySize converts raw input into a CompanySize.
func ParseCompanySize(value string) (CompanySize, error) {
	for _, candidate := range validCompanySizes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid company size %q", value)
}
