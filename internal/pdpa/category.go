package pdpa

// Category identifies a regulated PII shape.
type Category string

const (
	CategoryNationalID Category = "national_id"
	CategoryEmail      Category = "email"
	CategoryPhone      Category = "phone"
	CategoryAddress    Category = "address"
)

// Sensitivity mirrors the PDPA split between general and sensitive personal data.
type Sensitivity string

const (
	SensitivityGeneral   Sensitivity = "general"
	SensitivitySensitive Sensitivity = "sensitive"
)

var categoryLabels = map[Category]string{
	CategoryNationalID: "Thai National ID",
	CategoryEmail:      "Email",
	CategoryPhone:      "Phone Number",
	CategoryAddress:    "Address",
}

// Label returns the display name used in aggregate findings. Unknown
// categories, such as ones reported by external classifiers, use their raw value.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Known reports whether c is one of the built-in categories.
func (c Category) Known() bool {
	_, ok := categoryLabels[c]
	return ok
}
