package letters

import (
	"strings"
)

// BuildPrompt renders the provider prompt for a template and context.
func BuildPrompt(t Template, c Context) string {
	v := c.Values()
	abroad := ""
	if c.AbroadPeriod != "" {
		abroad = "- Auslandsaufenthalt: " + c.AbroadPeriod
	}

	lines := []string{
		"Du bist ein juristischer Assistent. Erstelle " + t.PromptTask + " basierend auf folgenden Informationen:",
		"",
		"KONTEXT:",
		"- Person: " + c.UserName,
		"- Adresse: " + c.UserAddress,
		"- Bescheid von: " + c.Issuer,
		"- Dokumenttyp: " + c.DocumentType,
		"- Betrag: " + c.Amount + " " + c.Currency,
		"- Ausstellungsdatum: " + c.IssueDate,
		"- Aktenzeichen: " + c.CaseNumber,
		"",
		"SITUATION:",
		"- Wohnsituation: " + c.LivingSituation,
		abroad,
		"- Frühere Zahlungen: " + c.PreviousPayments,
		"- Verfügbare Nachweise: " + c.Evidence,
		"",
		"ANALYSE:",
		"- Erfolgswahrscheinlichkeit: " + v["successProbability"],
		"- Interne Konsistenz: " + percent(c.Consistency),
		"- Beweislage-Alignment: " + percent(c.EvidenceAlignment),
		"",
		"ANFORDERUNGEN:",
		"1. Formell korrekt (Absender, Empfänger, Betreff, Datum)",
		"2. Sachlich und respektvoll im Ton",
		"3. Klare Begründung basierend auf den Fakten",
		"4. Verweis auf relevante Nachweise",
		"5. Konkrete Anträge",
		"",
		"Erstelle " + t.PromptFinal + ". Nutze die Informationen intelligent und füge rechtlich relevante Argumente hinzu.",
		"Formatiere das Dokument professionell.",
	}
	return strings.Join(lines, "\n")
}

// BuildRevisionPrompt asks the provider to rework a letter according to the
// user's feedback.
func BuildRevisionPrompt(original Document, feedback string) string {
	return "\nUrsprüngliches Dokument:\n" + original.Content +
		"\n\nBenutzer-Feedback:\n" + feedback +
		"\n\nBitte überarbeite das Dokument entsprechend dem Feedback. Behalte die formelle Struktur bei, aber integriere die gewünschten Änderungen.\n"
}
