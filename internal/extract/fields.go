package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	amountAfterRe  = regexp.MustCompile(`(\d{1,3}(?:\.\d{3})+|\d+),(\d{2})\s*(?:€|EUR|Euro)`)
	amountBeforeRe = regexp.MustCompile(`(?:€|EUR)\s*(\d{1,3}(?:\.\d{3})+|\d+),(\d{2})`)
	dateRe         = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	issueDateRe    = regexp.MustCompile(`(?i)(?:\bvom|\bdatum:?|,\s*den)\s+(\d{1,2}\.\d{1,2}\.\d{4})`)
	dueDateRe      = regexp.MustCompile(`(?i)(?:bis zum|bis spätestens(?: zum)?|spätestens (?:zum|am|bis)|fällig (?:am|zum)|zahlbar bis(?: zum)?|frist:?)\s*(\d{1,2}\.\d{1,2}\.\d{4})`)
	caseNumberRe   = regexp.MustCompile(`(?i)(?:beitragsnummer|aktenzeichen|kassenzeichen|az\.)\s*:?\s*(\d{3}\s\d{3}\s\d{3}|[0-9A-Z][0-9A-Z\-/]{4,24})`)
	postalCityRe   = regexp.MustCompile(`\b\d{5}\s+([A-ZÄÖÜ][\p{L}\-]+)`)
	streetRe       = regexp.MustCompile(`^[\p{L}ß.\- ]+\s\d+\s?[a-zA-Z]?$`)
	postalLineRe   = regexp.MustCompile(`^\d{5}\s+\S`)
)

// amountKeywords are ordered by how reliably the line carries the total claim.
var amountKeywords = []string{
	"gesamtbetrag",
	"gesamtforderung",
	"zu zahlender betrag",
	"offener betrag",
	"rückstand",
	"forderung",
	"betrag",
}

type docTypeRule struct {
	keyword    string
	docType    string
	confidence float64
}

var docTypeRules = []docTypeRule{
	{"vollstreckungsersuchen", "Vollstreckung", 0.95},
	{"vollstreckungsankündigung", "Vollstreckung", 0.95},
	{"pfändung", "Vollstreckung", 0.85},
	{"festsetzungsbescheid", "Beitragsbescheid", 0.95},
	{"beitragsbescheid", "Beitragsbescheid", 0.95},
	{"mahnung", "Mahnung", 0.9},
	{"zahlungserinnerung", "Mahnung", 0.8},
	{"befreiung", "Befreiung", 0.7},
	{"anmeldebestätigung", "Anmeldung", 0.8},
	{"rundfunkbeitrag", "Beitragsbescheid", 0.5},
}

// issuers are matched in order; specific names precede the generic ones.
var issuers = []struct {
	needle    string
	canonical string
}{
	{"ard zdf deutschlandradio beitragsservice", "ARD ZDF Deutschlandradio Beitragsservice"},
	{"beitragsservice von ard, zdf und deutschlandradio", "ARD ZDF Deutschlandradio Beitragsservice"},
	{"westdeutscher rundfunk", "Westdeutscher Rundfunk Köln"},
	{"bayerischer rundfunk", "Bayerischer Rundfunk"},
	{"norddeutscher rundfunk", "Norddeutscher Rundfunk"},
	{"südwestrundfunk", "Südwestrundfunk"},
	{"hessischer rundfunk", "Hessischer Rundfunk"},
	{"mitteldeutscher rundfunk", "Mitteldeutscher Rundfunk"},
	{"rundfunk berlin-brandenburg", "Rundfunk Berlin-Brandenburg"},
	{"saarländischer rundfunk", "Saarländischer Rundfunk"},
	{"radio bremen", "Radio Bremen"},
	{"beitragsservice", "ARD ZDF Deutschlandradio Beitragsservice"},
	{"stadtkasse", "Stadtkasse"},
	{"gerichtsvollzieher", "Gerichtsvollzieher"},
}

var keyPhraseCatalog = []string{
	"Rundfunkbeitrag",
	"Festsetzungsbescheid",
	"Säumniszuschlag",
	"Zahlungsverpflichtung",
	"Widerspruch",
	"Widerspruchsfrist",
	"Rechtsbehelfsbelehrung",
	"Vollstreckung",
	"Beitragsnummer",
	"Befreiung",
	"vier Wochen",
	"einen Monat",
}

// ParseFields derives structured fields from the plain text of a notice.
// Confidence.Overall is left for the caller, which knows the text source quality.
func ParseFields(text string) Data {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	collapsed := strings.Join(strings.Fields(text), " ")
	lower := strings.ToLower(collapsed)

	d := Data{
		FullText:   strings.TrimSpace(text),
		KeyPhrases: []string{},
		Flags:      []Flag{},
		Entities: Entities{
			Persons:       []string{},
			Organizations: []string{},
			Locations:     []string{},
			Dates:         []string{},
			Amounts:       []string{},
		},
	}

	d.DocumentType, d.Confidence.DocumentType = parseDocumentType(lower)
	parseIssuers(&d, lower)
	parseRecipient(&d, text)
	parseAmounts(&d, text)
	parseDates(&d, collapsed)
	parseReferences(&d, collapsed)

	for _, m := range postalCityRe.FindAllStringSubmatch(collapsed, -1) {
		d.Entities.Locations = appendUnique(d.Entities.Locations, m[1])
	}
	for _, phrase := range keyPhraseCatalog {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			d.KeyPhrases = append(d.KeyPhrases, phrase)
		}
	}
	return d
}

func parseDocumentType(lower string) (string, float64) {
	for _, rule := range docTypeRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.docType, rule.confidence
		}
	}
	return "", 0
}

func parseIssuers(d *Data, lower string) {
	for _, is := range issuers {
		if !strings.Contains(lower, is.needle) {
			continue
		}
		if d.Issuer == "" {
			d.Issuer = is.canonical
		}
		d.Entities.Organizations = appendUnique(d.Entities.Organizations, is.canonical)
	}
}

func parseRecipient(d *Data, text string) {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	for i, line := range lines {
		name := ""
		next := i + 1
		switch {
		case line == "Herrn" || line == "Herr" || line == "Frau":
			if next < len(lines) {
				name = lines[next]
				next++
			}
		case strings.HasPrefix(line, "Herrn "), strings.HasPrefix(line, "Herr "), strings.HasPrefix(line, "Frau "):
			name = strings.TrimSpace(line[strings.Index(line, " "):])
		default:
			continue
		}
		if name == "" || strings.ContainsAny(name, ",:0123456789") {
			continue
		}
		d.RecipientName = name
		d.Entities.Persons = appendUnique(d.Entities.Persons, name)
		if next+1 < len(lines) && streetRe.MatchString(lines[next]) && postalLineRe.MatchString(lines[next+1]) {
			d.RecipientAddress = lines[next] + ", " + lines[next+1]
		}
		return
	}
}

type amountHit struct {
	raw   string
	value float64
	line  int
}

func parseAmounts(d *Data, text string) {
	var hits []amountHit
	for i, line := range strings.Split(text, "\n") {
		for _, re := range []*regexp.Regexp{amountAfterRe, amountBeforeRe} {
			for _, m := range re.FindAllStringSubmatch(line, -1) {
				v, ok := parseGermanAmount(m[1], m[2])
				if !ok {
					continue
				}
				raw := strings.TrimSpace(m[0])
				hits = append(hits, amountHit{raw: raw, value: v, line: i})
				d.Entities.Amounts = appendUnique(d.Entities.Amounts, raw)
			}
		}
	}
	if len(hits) == 0 {
		return
	}

	lines := strings.Split(strings.ToLower(text), "\n")
	for _, kw := range amountKeywords {
		for _, h := range hits {
			if strings.Contains(lines[h.line], kw) {
				setAmount(d, h.value, 0.98)
				return
			}
		}
	}

	largest := hits[0]
	for _, h := range hits[1:] {
		if h.value > largest.value {
			largest = h
		}
	}
	setAmount(d, largest.value, 0.7)
}

func setAmount(d *Data, v, confidence float64) {
	amount := v
	d.Amount = &amount
	d.Currency = "EUR"
	d.Confidence.AmountExtraction = confidence
}

func parseGermanAmount(intPart, cents string) (float64, bool) {
	whole, err := strconv.Atoi(strings.ReplaceAll(intPart, ".", ""))
	if err != nil {
		return 0, false
	}
	c, err := strconv.Atoi(cents)
	if err != nil {
		return 0, false
	}
	return math.Round((float64(whole)+float64(c)/100)*100) / 100, true
}

func parseDates(d *Data, collapsed string) {
	for _, m := range dateRe.FindAllString(collapsed, -1) {
		if iso, ok := germanToISO(m); ok {
			d.Entities.Dates = appendUnique(d.Entities.Dates, iso)
		}
	}
	if m := issueDateRe.FindStringSubmatch(collapsed); m != nil {
		if iso, ok := germanToISO(m[1]); ok {
			d.IssueDate = iso
		}
	}
	if m := dueDateRe.FindStringSubmatch(collapsed); m != nil {
		if iso, ok := germanToISO(m[1]); ok {
			d.DueDate = iso
		}
	}

	switch {
	case d.IssueDate != "" && d.DueDate != "":
		d.Confidence.DateExtraction = 0.9
	case d.IssueDate != "" || d.DueDate != "":
		d.Confidence.DateExtraction = 0.75
	case len(d.Entities.Dates) > 0:
		d.Confidence.DateExtraction = 0.4
	}
}

func germanToISO(s string) (string, bool) {
	t, err := time.Parse("2.1.2006", s)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func parseReferences(d *Data, collapsed string) {
	for _, m := range caseNumberRe.FindAllStringSubmatch(collapsed, -1) {
		ref := strings.TrimSpace(m[1])
		if !strings.ContainsAny(ref, "0123456789") {
			continue
		}
		if d.CaseNumber == "" {
			d.CaseNumber = ref
		}
		d.ReferenceCodes = appendUnique(d.ReferenceCodes, ref)
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// overallConfidence weighs the per-field confidences by the quality of the text source.
func overallConfidence(c Confidence, sourceQuality float64) float64 {
	mean := (c.DocumentType + c.AmountExtraction + c.DateExtraction) / 3
	v := mean * sourceQuality
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return math.Round(v*1000) / 1000
}
