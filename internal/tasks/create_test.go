package tasks_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wineinventory/internal/domain"
	"wineinventory/internal/tasks"
)

var now = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func fixtures() (tasks.AgentIndex, tasks.CrewIndex) {
	agents := tasks.NewAgentIndex([]domain.Agent{
		{ID: 1, Name: "Atlas", ModelUsed: domain.ModelGPT5, MaxTokensPerTask: 1000, Status: domain.AgentAvailable},
		{ID: 2, Name: "Iris", ModelUsed: domain.ModelClaude45, MaxTokensPerTask: 12000, Status: domain.AgentAvailable},
	})
	crews := tasks.NewCrewIndex([]domain.Crew{
		{ID: 1, Name: "Cellar Forecast", LeadAgentID: 1, Status: domain.CrewActive},
		{ID: 2, Name: "Label Review", LeadAgentID: 2, Status: domain.CrewPlanned},
		{ID: 3, Name: "Stock Audit", LeadAgentID: 2, Status: domain.CrewActive},
	})
	return agents, crews
}

func TestCreateTask(t *testing.T) {
	agents, crews := fixtures()
	task, err := tasks.Create(tasks.Request{AgentID: 1, CrewID: 1, Description: "  forecast Q2  ", EstimatedTokens: 900}, agents, crews, nil, now, time.UTC)
	require.NoError(t, err)
	require.Equal(t, domain.TaskPending, task.Status)
	require.Equal(t, "forecast Q2", task.Description)
	require.Equal(t, 900, task.EstimatedTokens)
	require.Equal(t, "2025-03-10T15:00:00.000Z", task.RegisteredAt)
	require.Nil(t, task.ActualTokensUsed)
	require.Nil(t, task.FinishedAt)
	require.Zero(t, task.ID)
}

func TestCreateTaskRejects(t *testing.T) {
	agents, crews := fixtures()
	existing := []domain.Task{
		{ID: 7, AgentID: 2, CrewID: 1, EstimatedTokens: 100, Status: domain.TaskPending, RegisteredAt: "2025-03-10T08:00:00.000Z"},
	}
	cases := []struct {
		name     string
		req      tasks.Request
		msg      string
		notFound bool
	}{
		{"tokens not positive", tasks.Request{AgentID: 1, CrewID: 1, EstimatedTokens: 0}, "estimated tokens must be positive", false},
		{"unknown agent", tasks.Request{AgentID: 99, CrewID: 1, EstimatedTokens: 10}, "agent not found", true},
		{"unknown agent without tokens", tasks.Request{AgentID: 99, CrewID: 99}, "agent not found", true},
		{"unknown crew without tokens", tasks.Request{AgentID: 1, CrewID: 99}, "crew not found", true},
		{"planned crew without tokens", tasks.Request{AgentID: 1, CrewID: 2}, "crew not active", false},
		{"unknown crew", tasks.Request{AgentID: 1, CrewID: 99, EstimatedTokens: 10}, "crew not found", true},
		{"planned crew", tasks.Request{AgentID: 1, CrewID: 2, EstimatedTokens: 900}, "crew not active", false},
		{"planned crew checked before tokens", tasks.Request{AgentID: 1, CrewID: 2, EstimatedTokens: 1200}, "crew not active", false},
		{"over limit", tasks.Request{AgentID: 1, CrewID: 1, EstimatedTokens: 1200}, "tokens exceed agent limit", false},
		{"same day other crew", tasks.Request{AgentID: 2, CrewID: 3, Description: "different", EstimatedTokens: 10}, "duplicate same-day task", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tasks.Create(tc.req, agents, crews, existing, now, time.UTC)
			require.Error(t, err)
			require.Equal(t, tc.msg, err.Error())
			require.Equal(t, tc.notFound, domain.IsNotFound(err))
			require.Equal(t, !tc.notFound, domain.IsValidation(err))
		})
	}
}

func TestSameDayUsesLocalCalendar(t *testing.T) {
	agents, crews := fixtures()
	west := time.FixedZone("UTC-5", -5*3600)
	// 03:00 UTC on the 10th is the evening of the 9th at UTC-5.
	existing := []domain.Task{{AgentID: 1, CrewID: 1, RegisteredAt: "2025-03-10T03:00:00.000Z", Status: domain.TaskCompleted}}

	require.True(t, tasks.HasSameDayTask(existing, 1, now, time.UTC))
	require.False(t, tasks.HasSameDayTask(existing, 1, now, west))
	require.False(t, tasks.HasSameDayTask(existing, 2, now, time.UTC))

	_, err := tasks.Create(tasks.Request{AgentID: 1, CrewID: 1, EstimatedTokens: 500}, agents, crews, existing, now, west)
	require.NoError(t, err)
}

func TestSameDayAllowsYesterday(t *testing.T) {
	agents, crews := fixtures()
	existing := []domain.Task{{AgentID: 1, CrewID: 1, RegisteredAt: "2025-03-09T23:59:59.000Z"}}
	_, err := tasks.Create(tasks.Request{AgentID: 1, CrewID: 1, EstimatedTokens: 500}, agents, crews, existing, now, time.UTC)
	require.NoError(t, err)
}
