package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"wineinventory/internal/domain"
	"wineinventory/internal/events"
	"wineinventory/internal/repo"
	"wineinventory/internal/tasks"
)

// CreateTask validates req against the stored agent, crew and the agent's
// previous tasks, then persists the new pending task.
func (e Engine) CreateTask(ctx context.Context, req tasks.Request) (domain.Task, error) {
	defer e.lock()()

	var (
		agents   = tasks.AgentIndex{}
		crews    = tasks.CrewIndex{}
		existing []domain.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := e.Repo.GetAgent(gctx, nil, req.AgentID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load agent: %w", err)
		}
		agents[a.ID] = a
		return nil
	})
	g.Go(func() error {
		c, err := e.Repo.GetCrew(gctx, nil, req.CrewID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load crew: %w", err)
		}
		crews[c.ID] = c
		return nil
	})
	g.Go(func() error {
		list, err := e.Repo.ListTasks(gctx, nil, repo.TaskFilters{AgentID: req.AgentID})
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		existing = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Task{}, err
	}

	t, err := tasks.Create(req, agents, crews, existing, e.now(), e.location())
	if err != nil {
		return domain.Task{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	id, err := e.Repo.InsertTask(ctx, tx, t)
	if err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	t.ID = id
	if err := e.writer().Append(ctx, tx, events.TaskCreated, "task", fmt.Sprint(id), events.EventPayload{
		"agent_id":         t.AgentID,
		"crew_id":          t.CrewID,
		"estimated_tokens": t.EstimatedTokens,
	}); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	e.log().WithFields(logrus.Fields{"task_id": t.ID, "agent_id": t.AgentID, "crew_id": t.CrewID}).Info("task created")
	return t, nil
}

// TaskListOptions filters ListTasks; zero values match everything.
type TaskListOptions struct {
	AgentID int64
	Status  string
}

func (e Engine) ListTasks(ctx context.Context, opts TaskListOptions) ([]domain.Task, error) {
	return e.Repo.ListTasks(ctx, nil, repo.TaskFilters{AgentID: opts.AgentID, Status: opts.Status})
}

func (e Engine) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	return e.Repo.ListAgents(ctx)
}

func (e Engine) ListCrews(ctx context.Context) ([]domain.Crew, error) {
	return e.Repo.ListCrews(ctx)
}

func (e Engine) TaskKPIs(ctx context.Context) ([]tasks.KPI, error) {
	agents, err := e.Repo.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	list, err := e.Repo.ListTasks(ctx, nil, repo.TaskFilters{})
	if err != nil {
		return nil, err
	}
	return tasks.KPIs(agents, list), nil
}

// NextTask returns the oldest runnable pending task.
func (e Engine) NextTask(ctx context.Context) (tasks.NextTask, error) {
	agents, err := e.Repo.ListAgents(ctx)
	if err != nil {
		return tasks.NextTask{}, err
	}
	crews, err := e.Repo.ListCrews(ctx)
	if err != nil {
		return tasks.NextTask{}, err
	}
	list, err := e.Repo.ListTasks(ctx, nil, repo.TaskFilters{Status: string(domain.TaskPending)})
	if err != nil {
		return tasks.NextTask{}, err
	}
	next := tasks.Next(agents, crews, list)
	if next == nil {
		return tasks.NextTask{}, domain.NotFound("no pending task")
	}
	return *next, nil
}

func (e Engine) LatestEvents(ctx context.Context, limit int, f repo.EventFilters) ([]domain.Event, error) {
	return e.Repo.LatestEvents(ctx, limit, f)
}
