package dashboard

import (
	"context"

	"github.com/angelmondragon/webtemplate/pkg/db/models"
	pkgerrors "github.com/angelmondragon/webtemplate/pkg/errors"
)

// Stat is the wire shape of one dashboard card.
type Stat struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Trend string `json:"trend"`
	Color string `json:"color"`
}

// Service exposes the admin dashboard data.
type Service interface {
	Stats(ctx context.Context) ([]Stat, error)
}

type service struct {
	repo Repository
}

// NewService builds the dashboard service. A nil repo serves the built-in examples,
// which is how the template runs without a database.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Stats(ctx context.Context) ([]Stat, error) {
	if s.repo == nil {
		return DefaultStats(), nil
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dashboard stats")
	}
	if len(rows) == 0 {
		return DefaultStats(), nil
	}

	out := make([]Stat, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func fromModel(m models.DashboardStat) Stat {
	return Stat{Title: m.Title, Value: m.Value, Trend: m.Trend, Color: m.Color}
}

// DefaultStats mirrors the rows seeded by the dashboard_stats migration.
func DefaultStats() []Stat {
	return []Stat{
		{Title: "Example 1", Value: "10K+", Trend: "+12% from last month", Color: "bg-[#000b37]"},
		{Title: "Example 2", Value: "500K+", Trend: "+8% from last month", Color: "bg-[#85c20b]"},
		{Title: "Example 3", Value: "98%", Trend: "+2% from last month", Color: "bg-blue-500"},
		{Title: "Example 4", Value: "50%", Trend: "Faster processing", Color: "bg-purple-500"},
	}
}
