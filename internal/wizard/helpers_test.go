package wizard

import (
	"strings"
	"time"

	"github.com/matthewbaird/gigwizard/internal/types"
)

func ptr[T any](v T) *T { return &v }

func at(s string) *time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return &t
}

// completeFields returns field state that passes every step.
func completeFields() types.GigFields {
	f := types.NewGigFields()
	f.Title = "Editorial shoot in the park"
	f.Description = strings.Repeat("d", 80)
	f.LookingFor = []types.RoleTag{"MODELS"}
	f.Location = "Phoenix Park"
	f.City = "Dublin"
	f.Country = "IE"
	f.StartDate = at("2026-11-01T10:00")
	f.EndDate = at("2026-11-01T16:00")
	f.UsageRights = []string{"Portfolio use"}
	return f
}
