package workbook

// Sheet names follow the filing template.
const (
	SheetB2B    = "b2b"
	SheetB2CL   = "b2cl"
	SheetB2CS   = "b2cs"
	SheetExport = "export"
	SheetExempt = "Nil_exempt_NonGST"
	SheetCDNR   = "cdnr"
	SheetCDNUR  = "cdnur"
	SheetAT     = "adv_tax"
	SheetATAdj  = "adv_tax_adjusted"
	SheetDocs   = "Docs_issued"
	SheetHSN    = "hsn"
)

// columnMapping links one source CSV column to its template column.
type columnMapping struct {
	CSV   string
	Excel string
}

// sheetMappings maps portal CSV export headers onto the template
// headers, sheet by sheet. Order defines the template column order.
var sheetMappings = map[string][]columnMapping{
	SheetB2B: {
		{"GSTIN/UIN of Recipient", "GSTIN/UIN"},
		{"Invoice Number", "Invoice No"},
		{"Invoice date", "Date of Invoice"},
		{"Invoice Value", "Invoice Value"},
		{"Rate", "GST%"},
		{"Taxable Value", "Taxable Value"},
		{"Cess Amount", "CESS"},
		{"Place Of Supply", "Place Of Supply"},
		{"Reverse Charge", "RCM Applicable"},
		{"Invoice Type", "Invoice Type"},
		{"E-Commerce GSTIN", "E-Commerce GSTIN"},
	},
	SheetB2CL: {
		{"Invoice Number", "Invoice No"},
		{"Invoice date", "Date of Invoice"},
		{"Invoice Value", "Invoice Value"},
		{"Place Of Supply", "Place Of Supply"},
		{"Rate", "GST%"},
		{"Taxable Value", "Taxable Value"},
		{"Cess Amount", "CESS"},
		{"E-Commerce GSTIN", "E-Commerce GSTIN"},
	},
	SheetB2CS: {
		{"Type", "Type"},
		{"Place Of Supply", "Place Of Supply"},
		{"Rate", "GST%"},
		{"Taxable Value", "Taxable Value"},
		{"Cess Amount", "CESS"},
		{"E-Commerce GSTIN", "E-Commerce GSTIN"},
	},
	SheetExport: {
		{"Export Type", "Export Type"},
		{"Invoice Number", "Invoice No"},
		{"Invoice date", "Date of Invoice"},
		{"Invoice Value", "Invoice Value"},
		{"Port Code", "Port Code"},
		{"Shipping Bill Number", "Shipping Bill No"},
		{"Shipping Bill Date", "Shipping Bill Date"},
		{"Rate", "GST%"},
		{"Taxable Value", "Taxable Value"},
	},
	SheetExempt: {
		{"Description", "Description"},
		{"Nil Rated Supplies", "Nil Rated Supplies"},
		{"Exempted (other than nil rated/non GST supply)", "Exempted(other than nil rated/non GST supply)"},
		{"Non-GST supplies", "Non-GST Supplies"},
	},
	SheetCDNR: {
		{"GSTIN/UIN of Recipient", "GSTIN/UIN"},
		{"Note Number", "Dr./ Cr. No."},
		{"Note Date", "Dr./Cr. Date"},
		{"Note Type", "Type of note (Dr/ Cr)"},
		{"Place Of Supply", "Place of supply"},
		{"Reverse Charge", "RCM"},
		{"Note Supply Type", "Invoice Type"},
		{"Note Value", "Dr./Cr. Value"},
		{"Rate", "GST%"},
		{"Taxable Value", "Taxable Value"},
		{"Cess Amount", "CESS"},
	},
	SheetCDNUR: {
		{"UR Type", "Supply Type"},
		{"Note/Refund Voucher Number", "Dr./ Cr. Note No."},
		{"Note/Refund Voucher date", "Dr./ Cr. Note Date"},
		{"Document Type", "Type of note (Dr./ Cr.)"},
		{"Place Of Supply", "Place of supply"},
		{"Note/Refund Voucher Value", "Dr./Cr. Note Value"},
		{"Rate", "GST%"},
		{"Taxable Value", "Taxable Value"},
		{"Cess Amount", "CESS"},
	},
	SheetAT: {
		{"Place Of Supply", "Place Of Supply"},
		{"Rate", "GST%"},
		{"Gross Advance Received", "Gross Advance Received"},
		{"Cess Amount", "CESS"},
	},
	SheetATAdj: {
		{"Place Of Supply", "Place Of Supply"},
		{"Rate", "GST%"},
		{"Gross Advance Adjusted", "Gross Advance Adjusted"},
		{"Cess Amount", "CESS"},
	},
	SheetDocs: {
		{"Nature of Document", "Nature of Document"},
		{"Sr.No.From", "Sr. No. From"},
		{"Sr.No.To", "Sr. No. To"},
		{"Total Number", "Total Number"},
		{"Cancelled", "Cancelled"},
		{"Net Issued", "Net Issued"},
	},
	SheetHSN: {
		{"Type", "Type"},
		{"HSN", "HSN"},
		{"Description", "Description"},
		{"UQC", "UQC"},
		{"Total Quantity", "Total Quantity"},
		{"Total Value", "Total Value"},
		{"Rate", "Rate"},
		{"Taxable Value", "Total Taxable Value"},
		{"Integrated Tax Amount", "IGST"},
		{"Central Tax Amount", "CGST"},
		{"State/UT Tax Amount", "SGST"},
		{"Cess Amount", "CESS"},
	},
}

// templateSheets is the sheet creation order for an empty template.
var templateSheets = []string{
	SheetB2B, SheetB2CL, SheetB2CS, SheetExport, SheetExempt,
	SheetCDNR, SheetCDNUR, SheetAT, SheetATAdj, SheetDocs, SheetHSN,
}

// Sheets returns the template sheet names in creation order.
func Sheets() []string {
	return append([]string(nil), templateSheets...)
}

// ValidSheet reports whether name is a template sheet.
func ValidSheet(name string) bool {
	for _, s := range templateSheets {
		if s == name {
			return true
		}
	}
	return false
}

// exemptRows are the fixed description rows of the exempt sheet.
// Incoming data updates these rows in place instead of appending.
var exemptRows = []string{
	"Inter-State supplies to registered persons",
	"Intra-State supplies to registered persons",
	"Inter-State supplies to unregistered persons",
	"Intra-State supplies to unregistered persons",
}
