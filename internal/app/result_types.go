package app

import (
	"docflow/internal/ai"
	"docflow/internal/core"
)

// PriceResult is returned by PriceDocument.
type PriceResult struct {
	Lines  []core.LinePrice `json:"lines"`
	Totals core.Totals      `json:"totals"`
}

// DocumentResult is returned by single-document operations.
type DocumentResult struct {
	Document  *core.Document   `json:"document"`
	Lines     []core.LinePrice `json:"lines"`
	Remaining string           `json:"remaining,omitempty"`
}

// DocumentListResult is returned by ListDocuments. Unknown is set when the
// store could not be read, so an empty list must not be shown as "no documents".
type DocumentListResult struct {
	Type      core.DocumentType `json:"type"`
	Documents []core.Document   `json:"documents"`
	Unknown   bool              `json:"unknown"`
}

// ConversionResult is returned by ConvertDocuments. Skipped names the sources
// whose items could not be located.
type ConversionResult struct {
	Document *core.Document `json:"document"`
	Skipped  []string       `json:"skipped,omitempty"`
}

// PDFResult is returned by ExportPDF.
type PDFResult struct {
	Data     []byte
	Filename string
}

// WorkbookResult is returned by the spreadsheet exports.
type WorkbookResult struct {
	Data     []byte
	Filename string
}

// LeaveListResult is returned by ListLeaves.
type LeaveListResult struct {
	Requests []core.LeaveRequest `json:"requests"`
	Unknown  bool                `json:"unknown"`
}

// LedgerResult is returned by ListLedger.
type LedgerResult struct {
	Entries   []core.LeaveLedgerEntry `json:"entries"`
	TotalDays int                     `json:"totalDays"`
	Unknown   bool                    `json:"unknown"`
}

// DraftResult is returned by DraftDocument: the agent's proposal and the
// priced, unsaved document built from it.
type DraftResult struct {
	Proposal *ai.DraftProposal `json:"proposal"`
	Document *core.Document    `json:"document"`
}
