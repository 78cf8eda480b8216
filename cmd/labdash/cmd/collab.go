package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikeboe/lab-dashboard/pkg/api"
	"github.com/mikeboe/lab-dashboard/pkg/collab"
	"github.com/mikeboe/lab-dashboard/pkg/output"
)

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "List rule-based collaboration suggestions",
	Args:  cobra.NoArgs,
	RunE:  runSuggestions,
}

var aiCmd = &cobra.Command{
	Use:   "ai [task]",
	Short: "Stream AI collaboration recommendations",
	Long: `Ask the AI suggestion service for collaboration recommendations and
print its progress as it arrives.

Examples:
  labdash ai
  labdash ai "Find partners for our robotics work"
  labdash ai --draft 1           # Also print the email draft for the top match`,
	RunE: runAI,
}

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Preview the collaboration email for a lab",
	Args:  cobra.NoArgs,
	RunE:  runDraft,
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send the collaboration email to a lab",
	Long: `Build the collaboration email for a lab and send it through the backend.
--subject and --body replace the generated text.`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

var generateEmailCmd = &cobra.Command{
	Use:   "generate-email",
	Short: "Let the backend write the email between two labs",
	Args:  cobra.NoArgs,
	RunE:  runGenerateEmail,
}

func init() {
	rootCmd.AddCommand(suggestionsCmd)
	rootCmd.AddCommand(aiCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(generateEmailCmd)

	aiCmd.Flags().Int("draft", 0, "print the email draft for the Nth recommendation")

	for _, c := range []*cobra.Command{draftCmd, sendCmd} {
		c.Flags().Int("lab-id", 0, "recipient lab id")
		c.Flags().String("lab-name", "", "recipient lab name")
		c.Flags().String("domain", "", "shared research domain")
		c.Flags().String("email", "", "recipient email")
		c.Flags().String("reason", "", "why the labs should collaborate")
		c.Flags().StringSlice("project", nil, "suggested joint project (repeatable)")
	}
	sendCmd.Flags().String("subject", "", "replace the subject")
	sendCmd.Flags().String("body", "", "replace the body")

	generateEmailCmd.Flags().Int("from", 0, "sending lab id")
	generateEmailCmd.Flags().Int("to", 0, "recipient lab id")
	_ = generateEmailCmd.MarkFlagRequired("from")
	_ = generateEmailCmd.MarkFlagRequired("to")
}

func runSuggestions(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl := a.controller()
	defer ctrl.Close()

	suggestions, err := ctrl.FetchRuleBasedSuggestions(cmd.Context())
	if err != nil {
		return err
	}
	if len(suggestions) == 0 {
		a.printer.Info("No collaboration suggestions")
		return nil
	}

	table := output.NewTable(a.printer.Out(), []string{"To Lab", "Lab ID", "Shared Domain", "Shared Fields"})
	for _, s := range suggestions {
		table.AddRow(s.ToLab, formatID(s.ToLabID), s.SharedDomain, strings.Join(s.SharedFields, ", "))
	}
	return table.Render()
}

func runAI(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	task := cfg.DefaultAITask
	if len(args) > 0 {
		task = strings.Join(args, " ")
	}

	ctrl := a.controller()
	defer ctrl.Close()

	run, err := ctrl.RunAI(cmd.Context(), task)
	if err != nil {
		return err
	}

	var last collab.Event
	for ev := range run.Events() {
		last = ev
		switch {
		case ev.State == collab.StateConnecting:
			a.printer.Info("Connecting to AI service...")
		case ev.Status != "":
			a.printer.Print("%s", a.printer.Dim(ev.Status))
		}
	}

	switch last.State {
	case collab.StateErrored:
		return errors.New(last.Error)
	case collab.StateCompleted:
	default:
		return errors.New("AI run ended without a result")
	}

	recs := last.Recommendations
	if len(recs) == 0 {
		a.printer.Info("No recommendations")
		return nil
	}
	printRecommendations(a.printer, recs)

	n, _ := cmd.Flags().GetInt("draft")
	if n == 0 {
		return nil
	}
	if n < 1 || n > len(recs) {
		return fmt.Errorf("--draft must be between 1 and %d", len(recs))
	}
	printDraft(a.printer, ctrl.OpenDraft(collab.FromRecommendation(recs[n-1])))
	return nil
}

func printRecommendations(p *output.Printer, recs []api.AIRecommendation) {
	p.Header("AI Recommendations")
	table := output.NewTable(p.Out(), []string{"#", "Lab", "Domain", "Score", "Grade", "Email"})
	for i, r := range recs {
		table.AddRow(strconv.Itoa(i+1), r.LabName, r.Domain,
			strconv.FormatFloat(r.Score, 'f', 0, 64), p.Grade(r.Grade), r.LabEmail)
	}
	_ = table.Render()

	for i, r := range recs {
		if r.Reason == "" {
			continue
		}
		p.Print("%d. %s: %s", i+1, p.Bold(r.LabName), r.Reason)
	}
}

func draftSourceFromFlags(cmd *cobra.Command) collab.DraftSource {
	src := collab.DraftSource{}
	if id, _ := cmd.Flags().GetInt("lab-id"); id != 0 {
		src.ToLabID = &id
	}
	src.ToLab, _ = cmd.Flags().GetString("lab-name")
	src.SharedDomain, _ = cmd.Flags().GetString("domain")
	src.LabEmail, _ = cmd.Flags().GetString("email")
	src.Reason, _ = cmd.Flags().GetString("reason")
	src.RecommendedProjects, _ = cmd.Flags().GetStringSlice("project")
	return src
}

func printDraft(p *output.Printer, d collab.EmailDraft) {
	p.Header("Email Draft")
	to := d.ToLabName
	if d.ToEmail != "" {
		to = fmt.Sprintf("%s <%s>", d.ToLabName, d.ToEmail)
	}
	p.Print("%s %s", p.Bold("To:"), to)
	p.Print("%s %s", p.Bold("Subject:"), d.Subject)
	p.Print("")
	p.Print("%s", d.Body)
}

func runDraft(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl := a.controller()
	defer ctrl.Close()

	d := ctrl.OpenDraft(draftSourceFromFlags(cmd))
	printDraft(a.printer, d)
	if !d.HasLabID() {
		a.printer.Warning("No lab id; this draft cannot be sent")
	}
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl := a.controller()
	defer ctrl.Close()

	d := ctrl.OpenDraft(draftSourceFromFlags(cmd))
	subject, body := d.Subject, d.Body
	if cmd.Flags().Changed("subject") {
		subject, _ = cmd.Flags().GetString("subject")
	}
	if cmd.Flags().Changed("body") {
		body, _ = cmd.Flags().GetString("body")
	}
	if _, err := ctrl.UpdateDraft(subject, body); err != nil {
		return err
	}

	resp, err := ctrl.SendEmail(cmd.Context())
	if err != nil {
		return err
	}
	a.printer.Success("Email sent to %s", resp.To)
	return nil
}

func runGenerateEmail(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl := a.controller()
	defer ctrl.Close()

	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")

	content, err := ctrl.GenerateEmail(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	a.printer.Print("%s", content)
	return nil
}

func formatID(id *int) string {
	if id == nil {
		return "-"
	}
	return strconv.Itoa(*id)
}
