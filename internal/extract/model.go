package extract

// Data is the structured result of reading a contested notice.
// Optional fields are nil or empty when the document did not reveal them.
type Data struct {
	DocumentType     string     `json:"documentType"`
	Issuer           string     `json:"issuer"`
	RecipientName    string     `json:"recipientName,omitempty"`
	RecipientAddress string     `json:"recipientAddress,omitempty"`
	Amount           *float64   `json:"amount,omitempty"`
	Currency         string     `json:"currency,omitempty"`
	IssueDate        string     `json:"issueDate,omitempty"`
	DueDate          string     `json:"dueDate,omitempty"`
	CaseNumber       string     `json:"caseNumber,omitempty"`
	ReferenceCodes   []string   `json:"referenceCodes,omitempty"`
	Entities         Entities   `json:"entities"`
	FullText         string     `json:"fullText"`
	KeyPhrases       []string   `json:"keyPhrases"`
	Confidence       Confidence `json:"confidence"`
	Flags            []Flag     `json:"flags"`
}

type Entities struct {
	Persons       []string `json:"persons"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
	Dates         []string `json:"dates"`
	Amounts       []string `json:"amounts"`
}

// Confidence values are in [0,1].
type Confidence struct {
	Overall          float64 `json:"overall"`
	DocumentType     float64 `json:"documentType"`
	AmountExtraction float64 `json:"amountExtraction"`
	DateExtraction   float64 `json:"dateExtraction"`
}

type FlagType string

const (
	FlagWarning FlagType = "warning"
	FlagError   FlagType = "error"
	FlagInfo    FlagType = "info"
)

type Flag struct {
	Type    FlagType `json:"type"`
	Message string   `json:"message"`
	Field   string   `json:"field,omitempty"`
}

// AmountValue returns the amount or 0 when unknown.
func (d Data) AmountValue() float64 {
	if d.Amount == nil {
		return 0
	}
	return *d.Amount
}

// HasFlag reports whether any flag matches the type and, if non-empty, the field.
func (d Data) HasFlag(t FlagType, field string) bool {
	for _, f := range d.Flags {
		if t != "" && f.Type != t {
			continue
		}
		if field != "" && f.Field != field {
			continue
		}
		return true
	}
	return false
}
