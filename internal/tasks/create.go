// Package tasks validates task registrations and summarizes task activity.
package tasks

import (
	"strings"
	"time"

	"wineinventory/internal/domain"
)

// Request is a task registration.
type Request struct {
	AgentID         int64
	CrewID          int64
	Description     string
	EstimatedTokens int
}

type AgentLookup interface {
	FindAgent(id int64) (domain.Agent, bool)
}

type CrewLookup interface {
	FindCrew(id int64) (domain.Crew, bool)
}

type AgentIndex map[int64]domain.Agent

func NewAgentIndex(agents []domain.Agent) AgentIndex {
	idx := make(AgentIndex, len(agents))
	for _, a := range agents {
		idx[a.ID] = a
	}
	return idx
}

func (i AgentIndex) FindAgent(id int64) (domain.Agent, bool) {
	a, ok := i[id]
	return a, ok
}

type CrewIndex map[int64]domain.Crew

func NewCrewIndex(crews []domain.Crew) CrewIndex {
	idx := make(CrewIndex, len(crews))
	for _, c := range crews {
		idx[c.ID] = c
	}
	return idx
}

func (i CrewIndex) FindCrew(id int64) (domain.Crew, bool) {
	c, ok := i[id]
	return c, ok
}

// Create runs the registration checks in their fixed order and returns the
// pending task to persist. The returned task has no id yet.
func Create(req Request, agents AgentLookup, crews CrewLookup, existing []domain.Task, now time.Time, loc *time.Location) (domain.Task, error) {
	agent, ok := agents.FindAgent(req.AgentID)
	if !ok {
		return domain.Task{}, domain.NotFound("agent not found")
	}
	crew, ok := crews.FindCrew(req.CrewID)
	if !ok {
		return domain.Task{}, domain.NotFound("crew not found")
	}
	if crew.Status != domain.CrewActive {
		return domain.Task{}, domain.Invalid("crew not active")
	}
	if req.EstimatedTokens <= 0 {
		return domain.Task{}, domain.Invalid("estimated tokens must be positive")
	}
	if req.EstimatedTokens > agent.MaxTokensPerTask {
		return domain.Task{}, domain.Invalid("tokens exceed agent limit")
	}
	if HasSameDayTask(existing, req.AgentID, now, loc) {
		return domain.Task{}, domain.Invalid("duplicate same-day task")
	}
	return domain.Task{
		AgentID:         req.AgentID,
		CrewID:          req.CrewID,
		Description:     strings.TrimSpace(req.Description),
		EstimatedTokens: req.EstimatedTokens,
		Status:          domain.TaskPending,
		RegisteredAt:    domain.FormatTime(now),
	}, nil
}

// HasSameDayTask reports whether agentID already registered a task on the
// calendar date of now, as seen in loc.
func HasSameDayTask(existing []domain.Task, agentID int64, now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := now.In(loc).Date()
	for _, t := range existing {
		if t.AgentID != agentID {
			continue
		}
		at, err := domain.ParseTime(t.RegisteredAt, loc)
		if err != nil {
			continue
		}
		ty, tm, td := at.In(loc).Date()
		if ty == y && tm == m && td == d {
			return true
		}
	}
	return false
}
