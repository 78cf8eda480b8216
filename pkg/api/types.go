package api

// Lab is a research-laboratory record.
type Lab struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	Domain             string `json:"domain,omitempty"`
	SubDomains         string `json:"sub_domains,omitempty"`
	Description        string `json:"description,omitempty"`
	Email              string `json:"email,omitempty"`
	Institute          string `json:"institute,omitempty"`
	Country            string `json:"country,omitempty"`
	City               string `json:"city,omitempty"`
	TotalResearchers   int    `json:"total_researchers,omitempty"`
	ActiveProjects     int    `json:"active_projects,omitempty"`
	WorkloadScore      int    `json:"workload_score,omitempty"`
	AvailabilityStatus string `json:"availability_status,omitempty"`
	EquipmentLevel     string `json:"equipment_level,omitempty"`
	ComputingResources string `json:"computing_resources,omitempty"`
}

// LabInput creates a lab identity.
type LabInput struct {
	Name        string `json:"name"`
	Domain      string `json:"domain,omitempty"`
	Description string `json:"description,omitempty"`
	Email       string `json:"email,omitempty"`
}

type Researcher struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Field     string `json:"field,omitempty"`
	Seniority string `json:"seniority,omitempty"`
	Projects  int    `json:"projects,omitempty"`
	LabID     int    `json:"lab_id"`
}

type ResearcherInput struct {
	Name      string `json:"name"`
	Field     string `json:"field,omitempty"`
	Seniority string `json:"seniority,omitempty"`
	Projects  int    `json:"projects,omitempty"`
	LabID     int    `json:"lab_id"`
}

type LabResearcherSummary struct {
	LabID    int    `json:"lab_id"`
	LabName  string `json:"lab_name"`
	Total    int    `json:"total"`
	Seniors  int    `json:"seniors"`
	PhD      int    `json:"phd"`
	Interns  int    `json:"interns"`
	Projects int    `json:"projects"`
}

type ResearcherSummary struct {
	TotalResearchers int                    `json:"total_researchers"`
	TotalSeniors     int                    `json:"total_seniors"`
	TotalPhD         int                    `json:"total_phd"`
	TotalInterns     int                    `json:"total_interns"`
	TotalProjects    int                    `json:"total_projects"`
	Labs             []LabResearcherSummary `json:"labs"`
}

type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

type UserCreate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileUpdate struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// IdealLab is the home lab's profile, the "from" side of every match.
type IdealLab struct {
	Name                   string `json:"name"`
	Description            string `json:"description"`
	Domain                 string `json:"domain"`
	SubDomains             string `json:"sub_domains"`
	Email                  string `json:"email"`
	Website                string `json:"website"`
	Institute              string `json:"institute"`
	TotalResearchers       int    `json:"total_researchers"`
	ActiveProjects         int    `json:"active_projects"`
	WorkloadScore          int    `json:"workload_score"`
	AvailabilityStatus     string `json:"availability_status"`
	EquipmentLevel         string `json:"equipment_level"`
	ComputingResources     string `json:"computing_resources"`
	CollaborationInterests string `json:"collaboration_interests"`
	PreferredDomains       string `json:"preferred_domains"`
}

// Suggestion is a rule-computed pairing of two labs.
type Suggestion struct {
	ID           string   `json:"id"`
	FromLabID    *int     `json:"from_lab_id,omitempty"`
	ToLabID      *int     `json:"to_lab_id,omitempty"`
	FromLab      string   `json:"from_lab"`
	ToLab        string   `json:"to_lab"`
	SharedDomain string   `json:"shared_domain"`
	SharedFields []string `json:"shared_fields"`
}

type Grade string

const (
	GradeExcellent Grade = "Excellent"
	GradeGood      Grade = "Good"
	GradeFair      Grade = "Fair"
	GradePoor      Grade = "Poor"
)

// GradeForScore maps a 0-100 compatibility score to its grade.
func GradeForScore(score float64) Grade {
	switch {
	case score >= 80:
		return GradeExcellent
	case score >= 60:
		return GradeGood
	case score >= 40:
		return GradeFair
	default:
		return GradePoor
	}
}

// AIRecommendation is a scored, explained lab match from the AI channel.
type AIRecommendation struct {
	LabID               *int              `json:"lab_id,omitempty"`
	ToLabID             *int              `json:"to_lab_id,omitempty"`
	LabName             string            `json:"lab_name"`
	LabEmail            string            `json:"lab_email,omitempty"`
	Domain              string            `json:"domain"`
	Score               float64           `json:"score"`
	Grade               Grade             `json:"grade"`
	ScoreBreakdown      map[string]string `json:"score_breakdown,omitempty"`
	Reason              string            `json:"reason,omitempty"`
	RecommendedProjects []string          `json:"recommended_projects,omitempty"`
}

type SendEmailRequest struct {
	ToLabID int    `json:"to_lab_id"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type SendEmailResponse struct {
	Status  string `json:"status"`
	To      string `json:"to"`
	Subject string `json:"subject"`
}

type GenerateEmailRequest struct {
	FromLabID int `json:"from_lab_id"`
	ToLabID   int `json:"to_lab_id"`
}

type GeneratedEmail struct {
	Content string `json:"content"`
}
