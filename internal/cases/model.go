package cases

import "time"

type CaseType string

const (
	TypeBeitragsbescheid CaseType = "Beitragsbescheid"
	TypeMahnung          CaseType = "Mahnung"
	TypeVollstreckung    CaseType = "Vollstreckung"
	TypeHaertefall       CaseType = "Härtefall"
	TypeUmzug            CaseType = "Umzug"
	TypeBefreiung        CaseType = "Befreiung"
	TypeTreuhand         CaseType = "Treuhand"
	TypeSchadensersatz   CaseType = "Schadensersatz"
	TypeSonstiges        CaseType = "Sonstiges"
)

var caseTypes = []CaseType{
	TypeBeitragsbescheid, TypeMahnung, TypeVollstreckung, TypeHaertefall, TypeUmzug,
	TypeBefreiung, TypeTreuhand, TypeSchadensersatz, TypeSonstiges,
}

func (t CaseType) Valid() bool {
	for _, ct := range caseTypes {
		if ct == t {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusNew        Status = "Neu"
	StatusInProgress Status = "In Bearbeitung"
	StatusObjected   Status = "Widerspruch eingereicht"
	StatusLawyer     Status = "Anwalt konsultiert"
	StatusClosed     Status = "Abgeschlossen"
	StatusArchived   Status = "Archiviert"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusObjected, StatusLawyer, StatusClosed, StatusArchived:
		return true
	}
	return false
}

// Case groups one contested notice with its documents, interviews and letters.
type Case struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	CaseType     CaseType  `json:"caseType"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Status       Status    `json:"status"`
	Amount       *float64  `json:"amount,omitempty"`
	Currency     string    `json:"currency"`
	ReceivedDate string    `json:"receivedDate,omitempty"`
	Deadline     string    `json:"deadline,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Facts are the notice details copied onto a case after extraction.
type Facts struct {
	Amount       *float64
	Currency     string
	ReceivedDate string
	Deadline     string
}
