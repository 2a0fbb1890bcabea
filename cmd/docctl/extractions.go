package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dealdocs-backend/internal/extractions"
)

var extractionsCmd = &cobra.Command{
	Use:   "extractions",
	Short: "Inspect extraction versions",
}

var extractionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a document's extractions, highest version first",
	RunE: func(cmd *cobra.Command, args []string) error {
		documentID, _ := cmd.Flags().GetString("document")
		if documentID == "" {
			return fmt.Errorf("--document is required")
		}
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		list, err := a.ExtractionService.ListByDocument(cmd.Context(), documentID)
		if err != nil {
			return err
		}
		printExtractions(cmd.OutOrStdout(), list)
		return nil
	},
}

var extractionsLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show a document's latest extraction",
	RunE: func(cmd *cobra.Command, args []string) error {
		documentID, _ := cmd.Flags().GetString("document")
		if documentID == "" {
			return fmt.Errorf("--document is required")
		}
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		latest, err := a.ExtractionService.GetLatestByDocument(cmd.Context(), documentID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if latest == nil {
			gray := color.New(color.FgHiBlack).SprintFunc()
			fmt.Fprintf(out, "%s\n", gray("no extractions for "+documentID))
			return nil
		}
		printExtractions(out, []extractions.Extraction{*latest})
		fmt.Fprintf(out, "%s\n", latest.ExtractedData)
		return nil
	},
}

var extractionsProjectCmd = &cobra.Command{
	Use:   "project",
	Short: "List a project's extractions, or export them with --xlsx",
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, _ := cmd.Flags().GetString("project")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		if projectID == "" {
			return fmt.Errorf("--project is required")
		}
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		if xlsxPath != "" {
			data, err := a.ExtractionService.ExportProjectXLSX(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", xlsxPath, err)
			}
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", green("✓"), xlsxPath)
			return nil
		}
		list, err := a.ExtractionService.ListByProject(cmd.Context(), projectID)
		if err != nil {
			return err
		}
		printExtractions(cmd.OutOrStdout(), list)
		return nil
	},
}

func printExtractions(w io.Writer, list []extractions.Extraction) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	if len(list) == 0 {
		fmt.Fprintf(w, "%s\n", gray("no extractions"))
		return
	}
	for _, ext := range list {
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			cyan(fmt.Sprintf("v%d", ext.Version)),
			ext.ExtractedAt.Format("2006-01-02 15:04:05"),
			ext.DocumentID,
			gray(ext.SourceFileName))
	}
}

func init() {
	extractionsListCmd.Flags().String("document", "", "Document id")
	extractionsLatestCmd.Flags().String("document", "", "Document id")
	extractionsProjectCmd.Flags().String("project", "", "Project id")
	extractionsProjectCmd.Flags().String("xlsx", "", "Write an XLSX export to this path")

	extractionsCmd.AddCommand(extractionsListCmd, extractionsLatestCmd, extractionsProjectCmd)
	rootCmd.AddCommand(extractionsCmd)
}
