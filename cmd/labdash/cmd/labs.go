package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mikeboe/lab-dashboard/pkg/api"
	"github.com/mikeboe/lab-dashboard/pkg/output"
)

var labsCmd = &cobra.Command{
	Use:   "labs",
	Short: "List labs",
	Args:  cobra.NoArgs,
	RunE:  runLabs,
}

var researchersCmd = &cobra.Command{
	Use:   "researchers",
	Short: "List researchers",
	Long: `List researchers, optionally of one lab, or the per-lab summary.

Examples:
  labdash researchers
  labdash researchers --lab-id 3
  labdash researchers --summary`,
	Args: cobra.NoArgs,
	RunE: runResearchers,
}

func init() {
	rootCmd.AddCommand(labsCmd)
	rootCmd.AddCommand(researchersCmd)

	researchersCmd.Flags().Int("lab-id", 0, "only researchers of this lab")
	researchersCmd.Flags().Bool("summary", false, "show totals per lab")
}

func runLabs(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	labs, err := a.client.Labs(cmd.Context())
	if err != nil {
		return err
	}
	if len(labs) == 0 {
		a.printer.Info("No labs")
		return nil
	}

	table := output.NewTable(a.printer.Out(), []string{"ID", "Name", "Domain", "Email", "Researchers", "Availability"})
	for _, l := range labs {
		table.AddRow(strconv.Itoa(l.ID), l.Name, l.Domain, l.Email, strconv.Itoa(l.TotalResearchers), l.AvailabilityStatus)
	}
	return table.Render()
}

func runResearchers(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		s, err := a.client.ResearcherSummary(ctx)
		if err != nil {
			return err
		}
		a.printer.Header("Researchers")
		a.printer.Print("total %d, seniors %d, PhD %d, interns %d, projects %d",
			s.TotalResearchers, s.TotalSeniors, s.TotalPhD, s.TotalInterns, s.TotalProjects)

		table := output.NewTable(a.printer.Out(), []string{"Lab", "Total", "Seniors", "PhD", "Interns", "Projects"})
		for _, l := range s.Labs {
			table.AddRow(l.LabName, strconv.Itoa(l.Total), strconv.Itoa(l.Seniors),
				strconv.Itoa(l.PhD), strconv.Itoa(l.Interns), strconv.Itoa(l.Projects))
		}
		return table.Render()
	}

	var researchers []api.Researcher
	if labID, _ := cmd.Flags().GetInt("lab-id"); labID > 0 {
		researchers, err = a.client.ResearchersByLab(ctx, labID)
	} else {
		researchers, err = a.client.Researchers(ctx)
	}
	if err != nil {
		return err
	}

	table := output.NewTable(a.printer.Out(), []string{"ID", "Name", "Field", "Seniority", "Projects", "Lab"})
	for _, r := range researchers {
		table.AddRow(strconv.Itoa(r.ID), r.Name, r.Field, r.Seniority, strconv.Itoa(r.Projects), strconv.Itoa(r.LabID))
	}
	return table.Render()
}
