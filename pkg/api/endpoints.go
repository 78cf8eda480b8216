package api

import (
	"context"
	"fmt"
	"net/http"
)

// Collaboration

func (c *Client) Suggestions(ctx context.Context) ([]Suggestion, error) {
	var out []Suggestion
	if err := c.do(ctx, http.MethodGet, "/collaboration/suggestions", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}
	return out, nil
}

func (c *Client) SendEmail(ctx context.Context, req SendEmailRequest) (*SendEmailResponse, error) {
	out := &SendEmailResponse{}
	if err := c.do(ctx, http.MethodPost, "/collaboration/send-email", req, out); err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}
	return out, nil
}

func (c *Client) GenerateEmail(ctx context.Context, req GenerateEmailRequest) (*GeneratedEmail, error) {
	out := &GeneratedEmail{}
	if err := c.do(ctx, http.MethodPost, "/collaboration/generate-email", req, out); err != nil {
		return nil, fmt.Errorf("failed to generate email: %w", err)
	}
	return out, nil
}

// Labs

func (c *Client) Labs(ctx context.Context) ([]Lab, error) {
	var out []Lab
	if err := c.do(ctx, http.MethodGet, "/labs/", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch labs: %w", err)
	}
	return out, nil
}

func (c *Client) CreateLab(ctx context.Context, in LabInput) (*Lab, error) {
	out := &Lab{}
	if err := c.do(ctx, http.MethodPost, "/labs/", in, out); err != nil {
		return nil, fmt.Errorf("failed to create lab: %w", err)
	}
	return out, nil
}

func (c *Client) IdealLab(ctx context.Context) (*IdealLab, error) {
	out := &IdealLab{}
	if err := c.do(ctx, http.MethodGet, "/ideal-lab", nil, out); err != nil {
		return nil, fmt.Errorf("failed to fetch ideal lab: %w", err)
	}
	return out, nil
}

func (c *Client) UpdateIdealLab(ctx context.Context, in IdealLab) (*IdealLab, error) {
	out := &IdealLab{}
	if err := c.do(ctx, http.MethodPut, "/ideal-lab", in, out); err != nil {
		return nil, fmt.Errorf("failed to update ideal lab: %w", err)
	}
	return out, nil
}

// Researchers

func (c *Client) Researchers(ctx context.Context) ([]Researcher, error) {
	var out []Researcher
	if err := c.do(ctx, http.MethodGet, "/researchers", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch researchers: %w", err)
	}
	return out, nil
}

func (c *Client) ResearchersByLab(ctx context.Context, labID int) ([]Researcher, error) {
	var out []Researcher
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/researchers/by-lab/%d", labID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch researchers of lab %d: %w", labID, err)
	}
	return out, nil
}

func (c *Client) ResearcherSummary(ctx context.Context) (*ResearcherSummary, error) {
	out := &ResearcherSummary{}
	if err := c.do(ctx, http.MethodGet, "/researchers/summary", nil, out); err != nil {
		return nil, fmt.Errorf("failed to fetch researcher summary: %w", err)
	}
	return out, nil
}

func (c *Client) CreateResearcher(ctx context.Context, in ResearcherInput) (*Researcher, error) {
	out := &Researcher{}
	if err := c.do(ctx, http.MethodPost, "/researchers", in, out); err != nil {
		return nil, fmt.Errorf("failed to create researcher: %w", err)
	}
	return out, nil
}

func (c *Client) UpdateResearcher(ctx context.Context, id int, in ResearcherInput) (*Researcher, error) {
	out := &Researcher{}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/researchers/%d", id), in, out); err != nil {
		return nil, fmt.Errorf("failed to update researcher %d: %w", id, err)
	}
	return out, nil
}

func (c *Client) DeleteResearcher(ctx context.Context, id int) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/researchers/%d", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete researcher %d: %w", id, err)
	}
	return nil
}

// Users

func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	// The backend's login schema reuses the registration body, so a name is
	// required even though it is ignored.
	in := UserCreate{Name: "login", Email: email, Password: password}
	out := &Token{}
	if err := c.do(ctx, http.MethodPost, "/users/login", in, out); err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, in UserCreate) (*User, error) {
	out := &User{}
	if err := c.do(ctx, http.MethodPost, "/users/register", in, out); err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}
	return out, nil
}

func (c *Client) Profile(ctx context.Context) (*User, error) {
	out := &User{}
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, out); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (*User, error) {
	out := &User{}
	if err := c.do(ctx, http.MethodPut, "/users/me", in, out); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return out, nil
}
