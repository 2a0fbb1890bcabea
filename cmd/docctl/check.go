package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dealdocs-backend/internal/duplicates"
)

var checkCmd = &cobra.Command{
	Use:   "check-duplicates <file-name>...",
	Short: "Check proposed file names against documents already filed",
	Long: `Check one or more file names for exact or similar duplicates.

With --project only that project's documents are compared; otherwise only the
client's documents that belong to no project are compared.

Examples:
  docctl check-duplicates --client C1 "Loan Agreement.pdf"
  docctl check-duplicates --client C1 --project P7 a.pdf b.docx --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clientID, _ := cmd.Flags().GetString("client")
		projectID, _ := cmd.Flags().GetString("project")
		asJSON, _ := cmd.Flags().GetBool("json")
		if clientID == "" {
			return fmt.Errorf("--client is required")
		}

		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		reports := a.DuplicateService.CheckBatch(cmd.Context(), args, clientID, projectID)

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		}
		for i, r := range reports {
			printReport(out, args[i], r)
		}
		return nil
	},
}

func printReport(w io.Writer, fileName string, r duplicates.Report) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	switch {
	case r.Error != "":
		fmt.Fprintf(w, "%s %s %s\n", yellow("?"), fileName, gray("("+r.Error+")"))
	case r.HasExactMatch:
		fmt.Fprintf(w, "%s %s: %s\n", red("✗"), fileName, *r.Message)
	case r.HasSimilarMatch:
		fmt.Fprintf(w, "%s %s: %s\n", yellow("⚠"), fileName, *r.Message)
	case r.Message != nil:
		fmt.Fprintf(w, "%s %s: %s\n", yellow("?"), fileName, *r.Message)
	default:
		fmt.Fprintf(w, "%s %s: no duplicates\n", green("✓"), fileName)
	}
	for _, c := range r.Duplicates {
		fmt.Fprintf(w, "    %-7s %s %s\n", c.MatchType, c.FileName, gray(c.DocumentID))
	}
}

func init() {
	checkCmd.Flags().String("client", "", "Client id (required)")
	checkCmd.Flags().String("project", "", "Project id; omit for client-level documents")
	checkCmd.Flags().Bool("json", false, "Print reports as JSON")
	rootCmd.AddCommand(checkCmd)
}
