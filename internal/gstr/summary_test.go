package gstr

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSummarizeWorkedScenario(t *testing.T) {
	raw := RawReturn{
		"b2b_taxable": 1000.0, "b2b_cgst": 90.0, "b2b_sgst": 90.0,
		"b2c_taxable": 500.0, "b2c_igst": 90.0,
		"cdnr_taxable": 100.0, "cdnr_cgst": 9.0, "cdnr_sgst": 9.0,
	}
	s := Summarize(raw)

	checks := []struct {
		name string
		got  decimal.Decimal
		want int64
	}{
		{"aggregate.taxable", s.Aggregate.Taxable, 1400},
		{"aggregate.cgst", s.Aggregate.CGST, 81},
		{"aggregate.sgst", s.Aggregate.SGST, 81},
		{"aggregate.igst", s.Aggregate.IGST, 90},
		{"aggregate.cess", s.Aggregate.Cess, 0},
		{"total_tax", s.TotalTax, 252},
		{"total_invoice", s.TotalInvoice, 1652},
		{"credit_note_row_total", s.CreditNoteRowTotal, -118},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.NewFromInt(c.want)) {
			t.Fatalf("%s = %s, want %d", c.name, c.got, c.want)
		}
	}
}

func TestSummarizeEmptyRecord(t *testing.T) {
	for _, raw := range []RawReturn{nil, {}} {
		s := Summarize(raw)
		if !s.Aggregate.IsZero() {
			t.Fatalf("aggregate not zero for empty record: %+v", s.Aggregate)
		}
		if !s.TotalTax.IsZero() || !s.TotalInvoice.IsZero() || !s.CreditNoteRowTotal.IsZero() {
			t.Fatalf("derived totals not zero for empty record: %+v", s)
		}
		for _, c := range Categories() {
			if !s.PerCategory[c].IsZero() {
				t.Fatalf("category %s not zero for empty record", c)
			}
		}
	}
}

// TestSummarizeFormula checks the seven-term combination field-wise over
// randomly signed inputs: every category is additive except the adjusted
// advances, and credit/debit notes enter through their normalized
// (non-positive) values.
func TestSummarizeFormula(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		raw := RawReturn{}
		for _, c := range Categories() {
			for _, suffix := range []string{"taxable", "cgst", "sgst", "igst", "cess"} {
				raw[c.Prefix()+"_"+suffix] = (rng.Float64() - 0.5) * 2e6
			}
		}

		s := Summarize(raw)

		want := Normalize(raw, B2B).
			Add(Normalize(raw, B2C)).
			Add(Normalize(raw, CreditDebitNote)).
			Add(Normalize(raw, NilExempt)).
			Add(Normalize(raw, Export)).
			Add(Normalize(raw, AdvanceReceived)).
			Sub(Normalize(raw, AdvanceAdjusted))

		if !s.Aggregate.Taxable.Equal(want.Taxable) ||
			!s.Aggregate.CGST.Equal(want.CGST) ||
			!s.Aggregate.SGST.Equal(want.SGST) ||
			!s.Aggregate.IGST.Equal(want.IGST) ||
			!s.Aggregate.Cess.Equal(want.Cess) {
			t.Fatalf("iteration %d: aggregate %+v, want %+v", i, s.Aggregate, want)
		}

		// Derived metrics hold exactly for every computed summary.
		tax := s.Aggregate.CGST.Add(s.Aggregate.SGST).Add(s.Aggregate.IGST)
		if !s.TotalTax.Equal(tax) {
			t.Fatalf("iteration %d: total tax %s, want %s", i, s.TotalTax, tax)
		}
		inv := s.Aggregate.Taxable.Add(tax).Add(s.Aggregate.Cess)
		if !s.TotalInvoice.Equal(inv) {
			t.Fatalf("iteration %d: total invoice %s, want %s", i, s.TotalInvoice, inv)
		}

		// HSN never nets into the aggregate; it only appears per-category.
		if _, ok := s.PerCategory[HSNSummary]; !ok {
			t.Fatalf("iteration %d: hsn row missing from per-category map", i)
		}

		// The note row total comes from the note fields themselves.
		if !s.CreditNoteRowTotal.Equal(s.PerCategory[CreditDebitNote].RowTotal()) {
			t.Fatalf("iteration %d: credit note row total drifted", i)
		}

		// The advances display row nets received against adjusted.
		adv := s.PerCategory[AdvanceReceived].Sub(s.PerCategory[AdvanceAdjusted])
		if !s.Advances.Taxable.Equal(adv.Taxable) || !s.Advances.Cess.Equal(adv.Cess) {
			t.Fatalf("iteration %d: advances row %+v, want %+v", i, s.Advances, adv)
		}
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	raw := RawReturn{
		"b2b_taxable": 12345.67, "b2b_igst": 2222.22,
		"cdnr_taxable": 99.99, "cdnr_cess": -1.01,
		"at_taxable": 500.0, "atadj_taxable": 200.0,
	}
	a := Summarize(raw)
	b := Summarize(raw)

	if a.Aggregate.Taxable.String() != b.Aggregate.Taxable.String() ||
		a.TotalTax.String() != b.TotalTax.String() ||
		a.TotalInvoice.String() != b.TotalInvoice.String() ||
		a.CreditNoteRowTotal.String() != b.CreditNoteRowTotal.String() {
		t.Fatalf("summaries differ across identical inputs:\n%+v\n%+v", a, b)
	}
	for _, c := range Categories() {
		if a.PerCategory[c].RowTotal().String() != b.PerCategory[c].RowTotal().String() {
			t.Fatalf("category %s differs across identical inputs", c)
		}
	}
}

func TestSummarizeAdvancesNetting(t *testing.T) {
	raw := RawReturn{
		"at_taxable": 1000.0, "at_cess": 10.0,
		"atadj_taxable": 400.0, "atadj_cess": 4.0,
	}
	s := Summarize(raw)

	if want := decimal.NewFromInt(600); !s.Aggregate.Taxable.Equal(want) {
		t.Fatalf("aggregate taxable = %s, want %s", s.Aggregate.Taxable, want)
	}
	if want := decimal.NewFromInt(6); !s.Aggregate.Cess.Equal(want) {
		t.Fatalf("aggregate cess = %s, want %s", s.Aggregate.Cess, want)
	}
	if !s.Advances.Taxable.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("advances row taxable = %s, want 600", s.Advances.Taxable)
	}
	// 600 taxable + 0 tax + 6 cess
	if want := decimal.NewFromInt(606); !s.TotalInvoice.Equal(want) {
		t.Fatalf("total invoice = %s, want %s", s.TotalInvoice, want)
	}
}
