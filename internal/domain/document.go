package domain

// ============================================================
// Uploaded documents
// ============================================================

// Well-known upload slots. The slot tells the validator which document
// type it should expect in that position.
const (
	SlotPayslip            = "PAYSLIP"
	SlotBankStatement      = "BANK_STATEMENT"
	SlotEmiratesID         = "EMIRATES_ID"
	SlotTradeLicense       = "TRADE_LICENSE"
	SlotFinancialStatement = "FINANCIAL_STATEMENT"
)

// Document is one uploaded artifact assigned to an upload slot. The
// payload is opaque to this service; only the AI collaborators look
// inside it. Removal matches on (Name, Slot), not on content.
type Document struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Content  []byte `json:"content"`
	Slot     string `json:"slot"`
}

// ValidationFinding is the validator's verdict for one document.
type ValidationFinding struct {
	Slot            string   `json:"slot"`
	ExpectedDocType string   `json:"expected_doc_type"`
	DetectedName    string   `json:"detected_name,omitempty"`
	DetectedDocType string   `json:"detected_doc_type,omitempty"`
	NameMatches     bool     `json:"name_matches"`
	TypeMatches     bool     `json:"type_matches"`
	Issues          []string `json:"issues,omitempty"`
}
