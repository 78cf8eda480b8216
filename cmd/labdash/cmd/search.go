package cmd

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mikeboe/lab-dashboard/pkg/metrics"
	"github.com/mikeboe/lab-dashboard/pkg/output"
	"github.com/mikeboe/lab-dashboard/pkg/tui"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search dashboard pages, features and help",
	Long: `Search the dashboard. Without a query an interactive palette opens.

Examples:
  labdash search                 # Palette with recent searches and quick links
  labdash search analytics       # List matches
  labdash search scores --open   # Open the first match and remember it`,
	RunE: runSearch,
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recent searches",
	Args:  cobra.NoArgs,
	RunE:  runRecent,
}

var recentClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget recent searches",
	Args:  cobra.NoArgs,
	RunE:  runRecentClear,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(recentCmd)
	recentCmd.AddCommand(recentClearCmd)

	searchCmd.Flags().Bool("open", false, "open the first match")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	modal := a.searchModal()
	ctx := cmd.Context()

	if len(args) == 0 {
		palette := tui.NewPalette(ctx, modal)
		prog := tea.NewProgram(palette,
			tea.WithContext(ctx),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()))
		if _, err := prog.Run(); err != nil {
			return fmt.Errorf("search palette failed: %w", err)
		}
		return palette.Err()
	}

	query := strings.Join(args, " ")
	modal.Open(ctx)
	results := modal.SetQuery(query)
	metrics.RecordSearch(len(results))

	if len(results) == 0 {
		a.printer.Warning("No results found for %q", query)
		return nil
	}

	if open, _ := cmd.Flags().GetBool("open"); open {
		return modal.Select(ctx, results[0])
	}

	table := output.NewTable(a.printer.Out(), []string{"Type", "Title", "Path", "Description"})
	for _, e := range results {
		table.AddRow(string(e.Type), e.Title, e.Path, e.Description)
	}
	return table.Render()
}

func runRecent(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	modal := a.searchModal()
	modal.Open(cmd.Context())

	recent := modal.Recent()
	if len(recent) == 0 {
		a.printer.Info("No recent searches")
		return nil
	}

	table := output.NewTable(a.printer.Out(), []string{"Title", "Path", "Type"})
	for _, r := range recent {
		table.AddRow(r.Title, r.Path, string(r.Type))
	}
	return table.Render()
}

func runRecentClear(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.searchModal().ClearRecent(cmd.Context()); err != nil {
		return err
	}
	a.printer.Success("Recent searches cleared")
	return nil
}
