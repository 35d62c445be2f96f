package gstr

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// RawReturn is the raw per-category breakdown of a return, keyed
// "<prefix>_<field>" (e.g. "b2b_taxable", "cdnr_cgst"). It is owned by
// the caller; the engine reads it and never mutates it. Missing keys and
// non-numeric values contribute zero — partial filings are common and a
// missing category must not block rendering of the rest.
type RawReturn map[string]any

// fieldSuffixes are the five figure fields read per category.
var fieldSuffixes = [5]string{"taxable", "cgst", "sgst", "igst", "cess"}

// Amount coerces a raw record value to a decimal amount. Upstream data
// sources deliver JSON numbers, bare strings with thousands separators,
// or nothing at all; anything unparseable counts as zero.
func Amount(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case float64:
		return decimal.NewFromFloat(x)
	case float32:
		return decimal.NewFromFloat32(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(x, ",", ""))
		if s == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// Normalize extracts the five suffixed fields for one category from the
// raw record.
//
// Credit/debit notes are the one special case: the upstream sources
// disagree on whether the category arrives as a positive magnitude or an
// already-negative delta, so every field is coerced to -|v| here. Notes
// always reduce net outward supply; this is the single point that removes
// the sign ambiguity for every downstream consumer.
func Normalize(raw RawReturn, c Category) Figures {
	prefix := c.Prefix()
	read := func(suffix string) decimal.Decimal {
		return Amount(raw[prefix+"_"+suffix])
	}

	f := Figures{
		Taxable: read(fieldSuffixes[0]),
		CGST:    read(fieldSuffixes[1]),
		SGST:    read(fieldSuffixes[2]),
		IGST:    read(fieldSuffixes[3]),
		Cess:    read(fieldSuffixes[4]),
	}

	if c == CreditDebitNote {
		f = Figures{
			Taxable: f.Taxable.Abs().Neg(),
			CGST:    f.CGST.Abs().Neg(),
			SGST:    f.SGST.Abs().Neg(),
			IGST:    f.IGST.Abs().Neg(),
			Cess:    f.Cess.Abs().Neg(),
		}
	}

	return f
}
