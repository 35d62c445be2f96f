package gstr

import "github.com/shopspring/decimal"

// Summary is the balanced aggregate view of one raw return record.
// It is computed fresh on every call and never cached across inputs.
type Summary struct {
	// PerCategory holds the normalized figures for every category,
	// including the display-only HSN summary.
	PerCategory map[Category]Figures `json:"per_category"`

	// Advances is the derived display row AdvanceReceived - AdvanceAdjusted.
	// It does not feed back into Aggregate, which already nets the terms.
	Advances Figures `json:"advances"`

	Aggregate Figures `json:"aggregate"`

	TotalTax     decimal.Decimal `json:"total_tax"`
	TotalInvoice decimal.Decimal `json:"total_invoice"`

	// CreditNoteRowTotal is the sum of the five credit/debit-note fields
	// (all non-positive). It is the row total shown for that category and
	// is never recomputed from the aggregate.
	CreditNoteRowTotal decimal.Decimal `json:"credit_note_row_total"`
}

// Summarize normalizes every category of the raw record and combines
// them into one aggregate:
//
//	aggregate.f = b2b + b2c + cdnr + nil + exp + at - atadj
//
// per field. The credit/debit-note terms are already stored non-positive
// by Normalize, so they are added here; re-negating them would
// double-flip the sign. AdvanceAdjusted is the only explicit subtraction:
// that tax was already recognized against a prior advance and must not be
// counted twice. The HSN summary is informational and never netted.
func Summarize(raw RawReturn) Summary {
	per := make(map[Category]Figures, len(Categories()))
	for _, c := range Categories() {
		per[c] = Normalize(raw, c)
	}

	aggregate := per[B2B].
		Add(per[B2C]).
		Add(per[CreditDebitNote]).
		Add(per[NilExempt]).
		Add(per[Export]).
		Add(per[AdvanceReceived]).
		Sub(per[AdvanceAdjusted])

	totalTax := aggregate.CGST.Add(aggregate.SGST).Add(aggregate.IGST)

	return Summary{
		PerCategory:        per,
		Advances:           per[AdvanceReceived].Sub(per[AdvanceAdjusted]),
		Aggregate:          aggregate,
		TotalTax:           totalTax,
		TotalInvoice:       aggregate.Taxable.Add(totalTax).Add(aggregate.Cess),
		CreditNoteRowTotal: per[CreditDebitNote].RowTotal(),
	}
}
