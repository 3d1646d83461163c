package repo

import (
	"context"
	"database/sql"

	"wineinventory/internal/domain"
)

func (r Repo) InsertAgent(ctx context.Context, tx *sql.Tx, a domain.Agent) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO agents(id,name,role,model_used,max_tokens_per_task,status) VALUES (?,?,?,?,?,?)`,
		a.ID, a.Name, string(a.Role), string(a.ModelUsed), a.MaxTokensPerTask, string(a.Status))
	return err
}

func scanAgent(scan func(dest ...any) error) (domain.Agent, error) {
	var a domain.Agent
	err := scan(&a.ID, &a.Name, &a.Role, &a.ModelUsed, &a.MaxTokensPerTask, &a.Status)
	return a, err
}

func (r Repo) GetAgent(ctx context.Context, tx *sql.Tx, id int64) (domain.Agent, error) {
	a, err := scanAgent(r.q(tx).QueryRowContext(ctx, `SELECT id,name,role,model_used,max_tokens_per_task,status FROM agents WHERE id=?`, id).Scan)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

func (r Repo) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,role,model_used,max_tokens_per_task,status FROM agents ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Agent
	for rows.Next() {
		a, err := scanAgent(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r Repo) CountAgents(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM agents`).Scan(&n)
	return n, err
}

func (r Repo) InsertCrew(ctx context.Context, tx *sql.Tx, c domain.Crew) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO crews(id,name,objective,lead_agent_id,status,started_at,finished_at) VALUES (?,?,?,?,?,?,?)`,
		c.ID, c.Name, c.Objective, c.LeadAgentID, string(c.Status), c.StartedAt, nullableStringPtr(c.FinishedAt))
	return err
}

func scanCrew(scan func(dest ...any) error) (domain.Crew, error) {
	var (
		c        domain.Crew
		finished sql.NullString
	)
	if err := scan(&c.ID, &c.Name, &c.Objective, &c.LeadAgentID, &c.Status, &c.StartedAt, &finished); err != nil {
		return c, err
	}
	c.FinishedAt = stringPtr(finished)
	return c, nil
}

func (r Repo) GetCrew(ctx context.Context, tx *sql.Tx, id int64) (domain.Crew, error) {
	c, err := scanCrew(r.q(tx).QueryRowContext(ctx, `SELECT id,name,objective,lead_agent_id,status,started_at,finished_at FROM crews WHERE id=?`, id).Scan)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) ListCrews(ctx context.Context) ([]domain.Crew, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,objective,lead_agent_id,status,started_at,finished_at FROM crews ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Crew
	for rows.Next() {
		c, err := scanCrew(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

type TaskFilters struct {
	AgentID int64
	Status  string
}

const taskColumns = `id,crew_id,agent_id,description,estimated_tokens,actual_tokens_used,status,registered_at,finished_at`

// InsertTask stores t and returns the assigned id.
func (r Repo) InsertTask(ctx context.Context, tx *sql.Tx, t domain.Task) (int64, error) {
	res, err := r.q(tx).ExecContext(ctx, `INSERT INTO tasks(crew_id,agent_id,description,estimated_tokens,actual_tokens_used,status,registered_at,finished_at) VALUES (?,?,?,?,?,?,?,?)`,
		t.CrewID, t.AgentID, t.Description, t.EstimatedTokens, nullableIntPtr(t.ActualTokensUsed), string(t.Status), t.RegisteredAt, nullableStringPtr(t.FinishedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func scanTask(scan func(dest ...any) error) (domain.Task, error) {
	var (
		t        domain.Task
		actual   sql.NullInt64
		finished sql.NullString
	)
	if err := scan(&t.ID, &t.CrewID, &t.AgentID, &t.Description, &t.EstimatedTokens, &actual, &t.Status, &t.RegisteredAt, &finished); err != nil {
		return t, err
	}
	if actual.Valid {
		v := int(actual.Int64)
		t.ActualTokensUsed = &v
	}
	t.FinishedAt = stringPtr(finished)
	return t, nil
}

func (r Repo) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	t, err := scanTask(r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id).Scan)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

func (r Repo) ListTasks(ctx context.Context, tx *sql.Tx, f TaskFilters) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any
	if f.AgentID != 0 {
		query += ` AND agent_id=?`
		args = append(args, f.AgentID)
	}
	if f.Status != "" {
		query += ` AND status=?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY registered_at, id`
	rows, err := r.q(tx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}
