package tasks

import (
	"fmt"
	"math"
	"sort"
	"time"

	"wineinventory/internal/domain"
)

type KPI struct {
	Model           domain.AgentModel `json:"model"`
	CompletionRate  string            `json:"completionRate"`
	TokenEfficiency string            `json:"tokenEfficiency"`
	OpenBacklog     int               `json:"openBacklog"`
}

// KPIs summarizes tasks per agent model.
func KPIs(agents []domain.Agent, tasks []domain.Task) []KPI {
	byID := NewAgentIndex(agents)
	out := make([]KPI, 0, len(domain.AgentModels))
	for _, model := range domain.AgentModels {
		var completed, failed, backlog int
		var ratios []float64
		for _, t := range tasks {
			a, ok := byID.FindAgent(t.AgentID)
			if !ok || a.ModelUsed != model {
				continue
			}
			switch t.Status {
			case domain.TaskCompleted:
				completed++
				if t.EstimatedTokens > 0 && t.ActualTokensUsed != nil {
					r := float64(*t.ActualTokensUsed) / float64(t.EstimatedTokens)
					if !math.IsInf(r, 0) && !math.IsNaN(r) {
						ratios = append(ratios, r)
					}
				}
			case domain.TaskFailed:
				failed++
			case domain.TaskPending:
				backlog++
			}
		}
		k := KPI{Model: model, CompletionRate: "0.00%", TokenEfficiency: "N/A", OpenBacklog: backlog}
		if closed := completed + failed; closed > 0 {
			k.CompletionRate = fmt.Sprintf("%.2f%%", float64(completed)/float64(closed)*100)
		}
		if len(ratios) > 0 {
			var sum float64
			for _, r := range ratios {
				sum += r
			}
			k.TokenEfficiency = fmt.Sprintf("%.2f", sum/float64(len(ratios)))
		}
		out = append(out, k)
	}
	return out
}

type NextTask struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	CrewName        string `json:"crewName"`
	AgentName       string `json:"agentName"`
	EstimatedTokens int    `json:"estimatedTokens"`
	RegisteredAt    string `json:"registeredAt" format:"date-time"`
}

// Next picks the oldest pending task whose agent and crew are known and
// whose estimate fits the agent's limit.
func Next(agents []domain.Agent, crews []domain.Crew, tasks []domain.Task) *NextTask {
	byAgent := NewAgentIndex(agents)
	byCrew := NewCrewIndex(crews)
	type candidate struct {
		task  domain.Task
		agent domain.Agent
		crew  domain.Crew
		at    time.Time
	}
	var pending []candidate
	for _, t := range tasks {
		if t.Status != domain.TaskPending {
			continue
		}
		a, ok := byAgent.FindAgent(t.AgentID)
		if !ok {
			continue
		}
		c, ok := byCrew.FindCrew(t.CrewID)
		if !ok {
			continue
		}
		if t.EstimatedTokens > a.MaxTokensPerTask {
			continue
		}
		at, _ := domain.ParseTime(t.RegisteredAt, time.UTC)
		pending = append(pending, candidate{task: t, agent: a, crew: c, at: at})
	}
	if len(pending) == 0 {
		return nil
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].at.Before(pending[j].at) })
	next := pending[0]
	return &NextTask{
		Title:           next.agent.Name + " • " + next.crew.Name,
		Description:     next.task.Description,
		CrewName:        next.crew.Name,
		AgentName:       next.agent.Name,
		EstimatedTokens: next.task.EstimatedTokens,
		RegisteredAt:    next.task.RegisteredAt,
	}
}
