package gstr

// Category identifies one section of a GSTR-1 outward-supply return.
// The set is closed: every category maps to a fixed key prefix in the
// raw return record (e.g. "b2b" -> "b2b_taxable", "b2b_cgst", ...).
type Category string

const (
	B2B             Category = "b2b"
	B2C             Category = "b2c"
	CreditDebitNote Category = "cdnr"
	NilExempt       Category = "nil"
	Export          Category = "exp"
	AdvanceReceived Category = "at"
	AdvanceAdjusted Category = "atadj"
	HSNSummary      Category = "hsn"
)

// categoryPrefixes is the enumerated category -> raw-key prefix table.
// Kept as an explicit table so the category set stays closed and
// exhaustively testable.
var categoryPrefixes = map[Category]string{
	B2B:             "b2b",
	B2C:             "b2c",
	CreditDebitNote: "cdnr",
	NilExempt:       "nil",
	Export:          "exp",
	AdvanceReceived: "at",
	AdvanceAdjusted: "atadj",
	HSNSummary:      "hsn",
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{
		B2B,
		B2C,
		CreditDebitNote,
		NilExempt,
		Export,
		AdvanceReceived,
		AdvanceAdjusted,
		HSNSummary,
	}
}

// Prefix returns the raw-record key prefix for the category.
func (c Category) Prefix() string {
	return categoryPrefixes[c]
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryPrefixes[c]
	return ok
}
