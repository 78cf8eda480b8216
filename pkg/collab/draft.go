package collab

import (
	"fmt"
	"strings"

	"github.com/mikeboe/lab-dashboard/pkg/api"
)

// DefaultOrgName signs drafts when no organisation is configured.
const DefaultOrgName = "IDEAL Labs"

// DraftSource is the union of the fields a Suggestion or an AIRecommendation
// can contribute to an email draft. Either JSON object decodes into it.
type DraftSource struct {
	ToLabID             *int     `json:"to_lab_id,omitempty"`
	LabID               *int     `json:"lab_id,omitempty"`
	ToLab               string   `json:"to_lab,omitempty"`
	LabName             string   `json:"lab_name,omitempty"`
	SharedDomain        string   `json:"shared_domain,omitempty"`
	Domain              string   `json:"domain,omitempty"`
	LabEmail            string   `json:"lab_email,omitempty"`
	Reason              string   `json:"reason,omitempty"`
	RecommendedProjects []string `json:"recommended_projects,omitempty"`
}

func FromSuggestion(s api.Suggestion) DraftSource {
	return DraftSource{
		ToLabID:      s.ToLabID,
		ToLab:        s.ToLab,
		SharedDomain: s.SharedDomain,
	}
}

func FromRecommendation(r api.AIRecommendation) DraftSource {
	return DraftSource{
		ToLabID:             r.ToLabID,
		LabID:               r.LabID,
		LabName:             r.LabName,
		Domain:              r.Domain,
		LabEmail:            r.LabEmail,
		Reason:              r.Reason,
		RecommendedProjects: r.RecommendedProjects,
	}
}

// EmailDraft is an editable, not yet sent collaboration email.
type EmailDraft struct {
	ToLabID   *int   `json:"to_lab_id"`
	ToLabName string `json:"to_lab_name"`
	ToEmail   string `json:"to_email"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// HasLabID reports whether the draft names a recipient lab.
func (d EmailDraft) HasLabID() bool {
	return validID(d.ToLabID)
}

func validID(id *int) bool {
	return id != nil && *id > 0
}

func firstID(ids ...*int) *int {
	for _, id := range ids {
		if validID(id) {
			v := *id
			return &v
		}
	}
	return nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// OpenEmailDraft fills the collaboration letter for src. It does no I/O.
func OpenEmailDraft(src DraftSource, org string) EmailDraft {
	if org == "" {
		org = DefaultOrgName
	}
	labName := firstString(src.ToLab, src.LabName)
	domain := firstString(src.SharedDomain, src.Domain)

	paragraphs := []string{
		fmt.Sprintf("Hello %s Team,", labName),
		fmt.Sprintf("We at %s noticed that our labs share expertise in %s.", org, domain),
	}
	if reason := strings.TrimSpace(src.Reason); reason != "" {
		paragraphs = append(paragraphs, reason)
	}
	if len(src.RecommendedProjects) > 0 {
		var b strings.Builder
		b.WriteString("We believe we could collaborate on:")
		for i, p := range src.RecommendedProjects {
			fmt.Fprintf(&b, "\n%d. %s", i+1, p)
		}
		paragraphs = append(paragraphs, b.String())
	}
	paragraphs = append(paragraphs,
		"We would love to explore potential collaboration opportunities with your team.",
		"Please let us know if you are interested in discussing this further.",
		fmt.Sprintf("Best regards,\n%s Team", org),
	)

	return EmailDraft{
		ToLabID:   firstID(src.ToLabID, src.LabID),
		ToLabName: labName,
		ToEmail:   src.LabEmail,
		Subject:   "Collaboration Proposal from " + org,
		Body:      strings.Join(paragraphs, "\n\n"),
	}
}
