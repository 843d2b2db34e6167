package domain

import (
	"strings"

	"github.com/google/uuid"
)

type CaptureID = uuid.UUID

// Variant names one arm of the landing-page experiment.
type Variant string

const (
	VariantTimezoneFreedom        Variant = "timezone-freedom"
	VariantInformationFindability Variant = "information-findability"
	VariantUnifiedProductivity    Variant = "unified-productivity"
)

// Variants is the fixed experiment set. Order is stable so draws index into it.
var Variants = []Variant{
	VariantTimezoneFreedom,
	VariantInformationFindability,
	VariantUnifiedProductivity,
}

func ParseVariant(s string) (Variant, bool) {
	for _, v := range Variants {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

func (v Variant) String() string { return string(v) }

// LandingPath is the canonical landing page for the variant.
func (v Variant) LandingPath() string { return "/validate/" + string(v) + "/variant-a" }

// VariantList renders the variant set for error messages.
func VariantList() string {
	names := make([]string, len(Variants))
	for i, v := range Variants {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
