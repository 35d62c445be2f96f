// Package portal renders a filing workbook into the GST portal's JSON
// schema (version V1.0) for direct upload.
package portal

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"camate/internal/gstr"
)

// Return is the portal upload document.
type Return struct {
	GSTIN   string  `json:"gstin"`
	FP      string  `json:"fp"`
	GT      float64 `json:"gt"`
	CurGT   float64 `json:"cur_gt"`
	Version string  `json:"version"`

	B2B  []B2BParty  `json:"b2b,omitempty"`
	B2CS []B2CSEntry `json:"b2cs,omitempty"`
	HSN  *HSNData    `json:"hsn,omitempty"`
}

// B2BParty groups the invoices issued to one counterparty GSTIN.
type B2BParty struct {
	CTIN     string    `json:"ctin"`
	Invoices []Invoice `json:"inv"`
}

type Invoice struct {
	Number        string  `json:"inum"`
	Date          string  `json:"idt"`
	Value         float64 `json:"val"`
	POS           string  `json:"pos"`
	ReverseCharge string  `json:"rchrg"`
	Type          string  `json:"inv_typ"`
	Items         []Item  `json:"itms"`
}

type Item struct {
	Num    int        `json:"num"`
	Detail ItemDetail `json:"itm_det"`
}

type ItemDetail struct {
	Rate    float64 `json:"rt"`
	Taxable float64 `json:"txval"`
	IGST    float64 `json:"iamt"`
	CGST    float64 `json:"camt"`
	SGST    float64 `json:"samt"`
	Cess    float64 `json:"csamt"`
}

// B2CSEntry is one consolidated consumer line, keyed by place of
// supply, type and rate.
type B2CSEntry struct {
	SupplyType string  `json:"sply_ty"`
	POS        string  `json:"pos"`
	Rate       float64 `json:"rt"`
	Taxable    float64 `json:"txval"`
	Cess       float64 `json:"csamt"`
	Type       string  `json:"typ"`
}

type HSNData struct {
	Data []HSNEntry `json:"data"`
}

type HSNEntry struct {
	Num      int     `json:"num"`
	Code     string  `json:"hsn_sc"`
	Desc     string  `json:"desc"`
	UQC      string  `json:"uqc"`
	Quantity float64 `json:"qty"`
	Value    float64 `json:"val"`
	Taxable  float64 `json:"txval"`
	IGST     float64 `json:"iamt"`
	CGST     float64 `json:"camt"`
	SGST     float64 `json:"samt"`
	Cess     float64 `json:"csamt"`
}

// Generate extracts the portal document from the workbook bytes. gstin
// is the filer's registration and fp the filing period as MMYYYY.
func Generate(workbook []byte, gstin, fp string) (*Return, error) {
	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	if err != nil {
		return nil, fmt.Errorf("portal: open workbook: %w", err)
	}
	defer f.Close()

	ret := &Return{
		GSTIN:   gstin,
		FP:      fp,
		Version: "V1.0",
	}

	if rows := sheetRows(f, "b2b"); len(rows) > 1 {
		ret.B2B = buildB2B(rows)
	}
	if rows := sheetRows(f, "b2cs"); len(rows) > 1 {
		ret.B2CS = buildB2CS(rows, gstin)
	}
	if rows := sheetRows(f, "hsn"); len(rows) > 1 {
		if data := buildHSN(rows); len(data) > 0 {
			ret.HSN = &HSNData{Data: data}
		}
	}
	return ret, nil
}

// buildB2B groups invoice rows counterparty by counterparty; rows that
// share an invoice number become items of the same invoice.
func buildB2B(rows [][]string) []B2BParty {
	head := rows[0]
	gstinIdx := findHeader(head, contains("GSTIN"))
	invNoIdx := findHeader(head, containsAny("INVOICE NUMBER", "INVOICE NO"))
	invDtIdx := findHeader(head, contains("DATE"))
	invValIdx := findHeader(head, contains("INVOICE VALUE"))
	posIdx := findHeader(head, contains("PLACE OF SUPPLY"))
	rcmIdx := findHeader(head, containsAny("REVERSE CHARGE", "RCM"))
	rateIdx := findHeader(head, containsAny("RATE", "GST%"))
	taxValIdx := findHeader(head, contains("TAXABLE VALUE"))
	igstIdx := findHeader(head, contains("IGST"))
	cgstIdx := findHeader(head, contains("CGST"))
	sgstIdx := findHeader(head, contains("SGST"))
	cessIdx := findHeader(head, contains("CESS"))

	if gstinIdx < 0 {
		return nil
	}

	type invKey struct{ ctin, inum string }
	var parties []B2BParty
	partyIdx := map[string]int{}
	invIdx := map[invKey]int{}

	for _, row := range rows[1:] {
		ctin := strings.ToUpper(cell(row, gstinIdx))
		if ctin == "" {
			continue
		}

		pi, ok := partyIdx[ctin]
		if !ok {
			pi = len(parties)
			partyIdx[ctin] = pi
			parties = append(parties, B2BParty{CTIN: ctin})
		}

		inum := cell(row, invNoIdx)
		if inum == "" {
			inum = "UNK"
		}
		key := invKey{ctin, inum}
		ii, ok := invIdx[key]
		if !ok {
			ii = len(parties[pi].Invoices)
			invIdx[key] = ii
			rchrg := "N"
			if strings.HasPrefix(strings.ToUpper(cell(row, rcmIdx)), "Y") {
				rchrg = "Y"
			}
			parties[pi].Invoices = append(parties[pi].Invoices, Invoice{
				Number:        inum,
				Date:          cell(row, invDtIdx),
				Value:         amount(cell(row, invValIdx)),
				POS:           posCode(cell(row, posIdx)),
				ReverseCharge: rchrg,
				Type:          "R",
			})
		}

		inv := &parties[pi].Invoices[ii]
		inv.Items = append(inv.Items, Item{
			Num: len(inv.Items) + 1,
			Detail: ItemDetail{
				Rate:    amount(cell(row, rateIdx)),
				Taxable: amount(cell(row, taxValIdx)),
				IGST:    amount(cell(row, igstIdx)),
				CGST:    amount(cell(row, cgstIdx)),
				SGST:    amount(cell(row, sgstIdx)),
				Cess:    amount(cell(row, cessIdx)),
			},
		})
	}
	return parties
}

// buildB2CS consolidates consumer rows by (place of supply, type,
// rate). Supply type compares the row's state code with the filer's.
func buildB2CS(rows [][]string, gstin string) []B2CSEntry {
	head := rows[0]
	posIdx := findHeader(head, contains("PLACE OF SUPPLY"))
	rateIdx := findHeader(head, containsAny("RATE", "GST%"))
	taxValIdx := findHeader(head, contains("TAXABLE VALUE"))
	cessIdx := findHeader(head, contains("CESS"))
	typIdx := findHeader(head, contains("TYPE"))
	if posIdx < 0 {
		return nil
	}

	type groupKey struct {
		pos, typ string
		rate     string
	}
	var order []groupKey
	totals := map[groupKey]*struct{ taxable, cess decimal.Decimal }{}

	for _, row := range rows[1:] {
		pos := posCode(cell(row, posIdx))
		typ := strings.ToUpper(cell(row, typIdx))
		if typ == "" {
			typ = "OE"
		}
		rate := gstr.Amount(cell(row, rateIdx))

		key := groupKey{pos: pos, typ: typ, rate: rate.String()}
		g, ok := totals[key]
		if !ok {
			g = &struct{ taxable, cess decimal.Decimal }{}
			totals[key] = g
			order = append(order, key)
		}
		g.taxable = g.taxable.Add(gstr.Amount(cell(row, taxValIdx)))
		g.cess = g.cess.Add(gstr.Amount(cell(row, cessIdx)))
	}

	homeState := ""
	if len(gstin) >= 2 {
		homeState = gstin[:2]
	}
	entries := make([]B2CSEntry, 0, len(order))
	for _, key := range order {
		g := totals[key]
		supplyType := "INTRA"
		if homeState != "" && key.pos != homeState {
			supplyType = "INTER"
		}
		entries = append(entries, B2CSEntry{
			SupplyType: supplyType,
			POS:        key.pos,
			Rate:       amount(key.rate),
			Taxable:    round2(g.taxable),
			Cess:       round2(g.cess),
			Type:       key.typ,
		})
	}
	return entries
}

func buildHSN(rows [][]string) []HSNEntry {
	head := rows[0]
	hsnIdx := findHeader(head, contains("HSN"))
	descIdx := findHeader(head, contains("DESCRIPTION"))
	uqcIdx := findHeader(head, contains("UQC"))
	qtyIdx := findHeader(head, contains("QUANTITY"))
	valIdx := findHeader(head, contains("TOTAL VALUE"))
	taxValIdx := findHeader(head, contains("TAXABLE VALUE"))
	igstIdx := findHeader(head, contains("IGST"))
	cgstIdx := findHeader(head, contains("CGST"))
	sgstIdx := findHeader(head, contains("SGST"))
	cessIdx := findHeader(head, contains("CESS"))
	if hsnIdx < 0 {
		return nil
	}

	var entries []HSNEntry
	for i, row := range rows[1:] {
		code := cell(row, hsnIdx)
		if code == "" {
			continue
		}
		desc := cell(row, descIdx)
		if desc == "" {
			desc = "Goods"
		}
		if len(desc) > 30 {
			desc = desc[:30]
		}
		uqc := cell(row, uqcIdx)
		if uqc == "" {
			uqc = "OTH"
		} else {
			uqc = strings.TrimSpace(strings.SplitN(uqc, "-", 2)[0])
		}
		entries = append(entries, HSNEntry{
			Num:      i + 1,
			Code:     code,
			Desc:     desc,
			UQC:      uqc,
			Quantity: amount(cell(row, qtyIdx)),
			Value:    amount(cell(row, valIdx)),
			Taxable:  amount(cell(row, taxValIdx)),
			IGST:     amount(cell(row, igstIdx)),
			CGST:     amount(cell(row, cgstIdx)),
			SGST:     amount(cell(row, sgstIdx)),
			Cess:     amount(cell(row, cessIdx)),
		})
	}
	return entries
}

func sheetRows(f *excelize.File, name string) [][]string {
	idx, err := f.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return nil
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil
	}
	return rows
}

// posCode reduces "29-Karnataka" to the bare state code "29".
func posCode(pos string) string {
	return strings.TrimSpace(strings.SplitN(pos, "-", 2)[0])
}

func amount(s string) float64 {
	return round2(gstr.Amount(s))
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func findHeader(headers []string, match func(string) bool) int {
	for i, h := range headers {
		if match(strings.ToUpper(strings.TrimSpace(h))) {
			return i
		}
	}
	return -1
}

func contains(sub string) func(string) bool {
	return func(h string) bool { return strings.Contains(h, sub) }
}

func containsAny(subs ...string) func(string) bool {
	return func(h string) bool {
		for _, sub := range subs {
			if strings.Contains(h, sub) {
				return true
			}
		}
		return false
	}
}
