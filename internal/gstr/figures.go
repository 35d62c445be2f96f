// Package gstr implements the GSTR-1 dashboard aggregation engine: it
// normalizes the per-category tax figures of a raw return record and
// combines them into one balanced set of totals for display.
//
// The engine is a pure function of its input. It performs no I/O, never
// mutates the raw record and allocates a fresh result per call, so it is
// safe to invoke concurrently.
package gstr

import "github.com/shopspring/decimal"

// Figures is the canonical five-field tax tuple shared by every return
// category: taxable value plus the four levy components.
type Figures struct {
	Taxable decimal.Decimal `json:"taxable"`
	CGST    decimal.Decimal `json:"cgst"`
	SGST    decimal.Decimal `json:"sgst"`
	IGST    decimal.Decimal `json:"igst"`
	Cess    decimal.Decimal `json:"cess"`
}

// Add returns the field-wise sum of f and g.
func (f Figures) Add(g Figures) Figures {
	return Figures{
		Taxable: f.Taxable.Add(g.Taxable),
		CGST:    f.CGST.Add(g.CGST),
		SGST:    f.SGST.Add(g.SGST),
		IGST:    f.IGST.Add(g.IGST),
		Cess:    f.Cess.Add(g.Cess),
	}
}

// Sub returns the field-wise difference f - g.
func (f Figures) Sub(g Figures) Figures {
	return Figures{
		Taxable: f.Taxable.Sub(g.Taxable),
		CGST:    f.CGST.Sub(g.CGST),
		SGST:    f.SGST.Sub(g.SGST),
		IGST:    f.IGST.Sub(g.IGST),
		Cess:    f.Cess.Sub(g.Cess),
	}
}

// RowTotal is the display total for a single category row:
// taxable + cgst + sgst + igst + cess.
func (f Figures) RowTotal() decimal.Decimal {
	return f.Taxable.Add(f.CGST).Add(f.SGST).Add(f.IGST).Add(f.Cess)
}

// IsZero reports whether every field is zero.
func (f Figures) IsZero() bool {
	return f.Taxable.IsZero() && f.CGST.IsZero() && f.SGST.IsZero() &&
		f.IGST.IsZero() && f.Cess.IsZero()
}
