package insights

import "time"

const dateLayout = "2006-01-02"

// Phase is one step of the implementation roadmap.
type Phase struct {
	Name     string
	Start    string // YYYY-MM-DD
	Finish   string // YYYY-MM-DD, inclusive
	Category string
}

// Days returns the inclusive length of the phase in days.
func (p Phase) Days() int {
	start, err := time.Parse(dateLayout, p.Start)
	if err != nil {
		return 0
	}
	finish, err := time.Parse(dateLayout, p.Finish)
	if err != nil {
		return 0
	}
	return int(finish.Sub(start).Hours()/24) + 1
}

// Milestone groups the deliverables of one or more quarters.
type Milestone struct {
	Quarter string
	Theme   string
	Items   []string
}

// Roadmap is the oversight implementation plan.
type Roadmap struct {
	Year       int
	Phases     []Phase
	Milestones []Milestone
}

// DefaultRoadmap returns the 2025 implementation roadmap.
// A fresh copy is returned on each call.
func DefaultRoadmap() Roadmap {
	return Roadmap{
		Year: 2025,
		Phases: []Phase{
			{Name: "Planning & Vendor Setup", Start: "2025-01-01", Finish: "2025-02-28", Category: "Planning"},
			{Name: "Telemetry Installation", Start: "2025-03-01", Finish: "2025-04-30", Category: "Implementation"},
			{Name: "Supplier Integration", Start: "2025-05-01", Finish: "2025-06-30", Category: "Integration"},
			{Name: "Pilot & Analytics", Start: "2025-07-01", Finish: "2025-09-30", Category: "Analytics"},
			{Name: "Dashboard Deployment", Start: "2025-10-01", Finish: "2025-11-30", Category: "Dashboard"},
			{Name: "Review & Scale Decision", Start: "2025-12-01", Finish: "2025-12-31", Category: "Review"},
		},
		Milestones: []Milestone{
			{Quarter: "Q1 2025", Theme: "Foundation", Items: []string{"Vendor selection", "Hardware procurement", "Team mobilization"}},
			{Quarter: "Q2-Q3 2025", Theme: "Build", Items: []string{"IoT sensor installation", "Supplier integration (50+)", "Pilot program launch"}},
			{Quarter: "Q4 2025", Theme: "Scale", Items: []string{"Full dashboard rollout", "Performance evaluation", "Scale-up decision"}},
		},
	}
}
