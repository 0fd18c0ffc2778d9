package screening

import (
	"fmt"
	"strings"
	"time"
)

// ResumeData is the structured record produced by the resume page scraper.
// Any field may be absent: a scrape miss degrades to a nil pointer or an
// empty slice, never to an error.
type ResumeData struct {
	Link            string
	VacancyID       string
	Name            *string
	Age             *int
	BirthDate       *time.Time
	Address         *string
	Citizenship     *string
	ReadyToRelocate *bool
	JobSearchStatus *string
	Salary          *int
	Position        *string
	Skills          []string
	Experiences     []WorkExperience
	Employment      *EmploymentInfo
}

// WorkExperience is one employment entry from a resume. Start and End are
// YYYY-MM strings; End is empty for a current position.
type WorkExperience struct {
	Company     string
	Position    string
	Start       string
	End         string
	Description string
}

type EmploymentInfo struct {
	EmploymentType string
	WorkSchedule   string
}

// Summary flattens the record into a single text block suitable for storage
// alongside the candidate and for LLM consumption.
func (r *ResumeData) Summary() string {
	var b strings.Builder

	write := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}

	if r.Name != nil {
		write("Name", *r.Name)
	}
	if r.Age != nil {
		write("Age", fmt.Sprintf("%d", *r.Age))
	}
	if r.Position != nil {
		write("Position", *r.Position)
	}
	if r.Salary != nil {
		write("Expected salary", fmt.Sprintf("%d", *r.Salary))
	}
	if r.Address != nil {
		write("Address", *r.Address)
	}
	if r.Citizenship != nil {
		write("Citizenship", *r.Citizenship)
	}
	if r.ReadyToRelocate != nil {
		write("Ready to relocate", fmt.Sprintf("%t", *r.ReadyToRelocate))
	}
	if r.JobSearchStatus != nil {
		write("Job search status", *r.JobSearchStatus)
	}
	if len(r.Skills) > 0 {
		write("Skills", strings.Join(r.Skills, ", "))
	}
	if r.Employment != nil {
		write("Employment", r.Employment.EmploymentType)
		write("Work schedule", r.Employment.WorkSchedule)
	}
	for _, exp := range r.Experiences {
		period := exp.Start
		if exp.End != "" {
			period += " - " + exp.End
		} else if period != "" {
			period += " - present"
		}
		fmt.Fprintf(&b, "Experience: %s, %s (%s): %s\n", exp.Company, exp.Position, period, exp.Description)
	}

	return strings.TrimSpace(b.String())
}
