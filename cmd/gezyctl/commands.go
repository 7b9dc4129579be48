package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gezy-backend/internal/bootstrap"
	"gezy-backend/internal/extract"
	"gezy-backend/internal/interview"
	"gezy-backend/internal/letters"
	"gezy-backend/internal/recommend"
	"gezy-backend/internal/shared/config"
	"gezy-backend/internal/shared/storage/db"
)

var (
	extractTimeout time.Duration

	questionsCaseType string
	questionsAmount   float64

	assessInput string

	letterInput    string
	letterType     string
	letterProvider string
	letterHTML     bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract structured fields from a notice",
	Long: `Reads the text layer of a PDF, DOCX or plain text notice and prints the
extracted fields as JSON.

Examples:
  gezyctl extract ./festsetzungsbescheid.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print the interview catalogue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var data extract.Data
		if cmd.Flags().Changed("amount") {
			data.Amount = &questionsAmount
		}
		return printJSON(cmd.OutOrStdout(), interview.Generate(data, questionsCaseType))
	},
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score a case file and print recommendations",
	Long: `Replays the interview answers of a case file, completes the session and
prints the due-diligence report with recommendations.

A case file looks like:
  {
    "caseType": "Festsetzungsbescheid",
    "extractedData": {"amount": 315, "dueDate": "2024-03-20"},
    "responses": [{"questionId": "q1_basic_confirmation", "answer": true}],
    "profile": {"name": "Max Mustermann", "address": "Musterstr. 1, 12345 Berlin"}
  }`,
	Args: cobra.NoArgs,
	RunE: runAssess,
}

var letterCmd = &cobra.Command{
	Use:   "letter",
	Short: "Generate a letter from a case file",
	Long: `Generates a letter for a case file. The template provider works offline;
other providers read their keys from the environment and fall back to the
template on failure.

Examples:
  gezyctl letter --input case.json
  gezyctl letter --input case.json --type anfrage --html
  gezyctl letter --input case.json --provider openai`,
	Args: cobra.NoArgs,
	RunE: runLetter,
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|status]",
	Short:     "Apply or inspect database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "status"},
	RunE:      runMigrate,
}

func init() {
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 30*time.Second, "Per-attempt extraction timeout")

	questionsCmd.Flags().StringVar(&questionsCaseType, "case-type", "", "Case type of the notice")
	questionsCmd.Flags().Float64Var(&questionsAmount, "amount", 0, "Amount read from the notice")

	assessCmd.Flags().StringVarP(&assessInput, "input", "i", "", "Case file (JSON)")

	letterCmd.Flags().StringVarP(&letterInput, "input", "i", "", "Case file (JSON)")
	letterCmd.Flags().StringVarP(&letterType, "type", "t", letters.TypeWiderspruch, "Letter type (widerspruch, anfrage)")
	letterCmd.Flags().StringVarP(&letterProvider, "provider", "p", "template", "Provider (template, gemini, openai, anthropic)")
	letterCmd.Flags().BoolVar(&letterHTML, "html", false, "Print the HTML rendering instead of plain text")
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	mimeType := extract.NormalizeMimeType("", path, data)
	ex := extract.NewExtractor(extract.TextLayer{}, extractTimeout)
	out, err := ex.Extract(cmd.Context(), data, mimeType)
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func runAssess(cmd *cobra.Command, _ []string) error {
	cf, err := loadCaseFile(assessInput)
	if err != nil {
		return err
	}
	a, err := cf.assess(time.Now())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), map[string]any{
		"diligenceReport": a.report,
		"recommendations": recommend.Generate(a.report, a.session),
		"session":         a.session,
	})
}

func runLetter(cmd *cobra.Command, _ []string) error {
	cf, err := loadCaseFile(letterInput)
	if err != nil {
		return err
	}
	a, err := cf.assess(time.Now())
	if err != nil {
		return err
	}
	templates, err := letters.LoadTemplates()
	if err != nil {
		return err
	}

	cfg := config.Load()
	cfg.LLMProvider = letterProvider
	gen := letters.NewGenerator(templates, bootstrap.NewLLMRegistry(cfg))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	doc, err := gen.Generate(ctx, letters.Request{
		UserID:       "local",
		CaseID:       "local",
		DocumentType: strings.ToLower(strings.TrimSpace(letterType)),
		Context:      letters.NewContext(cf.ExtractedData, a.session, a.report, cf.profile()),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if letterHTML {
		_, err = fmt.Fprintln(out, doc.ContentHTML)
		return err
	}
	if _, err := fmt.Fprintln(out, doc.Content); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "provider=%s quality=%.2f\n", doc.Metadata.AIProvider, doc.Feedback.QualityScore)
	for _, w := range doc.Feedback.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if len(args) == 1 && args[0] == "status" {
		return db.MigrationStatus(ctx, sqlDB)
	}
	return db.RunMigrations(ctx, sqlDB)
}
