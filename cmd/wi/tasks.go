package main

import (
	"context"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wineinventory/internal/domain"
	"wineinventory/internal/engine"
	"wineinventory/internal/repo"
	"wineinventory/internal/tasks"
)

func agentCmd() *cobra.Command {
	agent := &cobra.Command{Use: "agent", Short: "Inspect agents"}
	agent.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				items, err := b.ListAgents(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Role", "Model", "Max tokens", "Status"})
				for _, a := range items {
					tw.AppendRow(table.Row{a.ID, a.Name, a.Role, a.ModelUsed, a.MaxTokensPerTask, a.Status})
				}
				tw.Render()
				return nil
			})
		},
	})
	return agent
}

func crewCmd() *cobra.Command {
	crew := &cobra.Command{Use: "crew", Short: "Inspect crews"}
	crew.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List crews",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				items, err := b.ListCrews(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Lead", "Status", "Started", "Finished"})
				for _, c := range items {
					finished := ""
					if c.FinishedAt != nil {
						finished = *c.FinishedAt
					}
					tw.AppendRow(table.Row{c.ID, c.Name, c.LeadAgentID, c.Status, c.StartedAt, finished})
				}
				tw.Render()
				return nil
			})
		},
	})
	return crew
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Register and review agent tasks",
		Long:  "A task is accepted only when its agent and crew exist, the crew is ACTIVE, the estimate fits the agent's max tokens per task and the agent has no other task registered today.",
	}
	task.AddCommand(taskCreateCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskKPIsCmd())
	task.AddCommand(taskNextCmd())
	return task
}

func taskCreateCmd() *cobra.Command {
	var req tasks.Request
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				t, err := b.CreateTask(ctx, req)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().Int64Var(&req.AgentID, "agent", 0, "agent id")
	cmd.Flags().Int64Var(&req.CrewID, "crew", 0, "crew id")
	cmd.Flags().StringVar(&req.Description, "description", "", "description")
	cmd.Flags().IntVar(&req.EstimatedTokens, "tokens", 0, "estimated tokens")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("crew")
	_ = cmd.MarkFlagRequired("tokens")
	return cmd
}

func taskListCmd() *cobra.Command {
	var agentID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				items, err := b.ListTasks(ctx, agentID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Agent", "Crew", "Status", "Estimated", "Actual", "Registered", "Description"})
				for _, t := range items {
					tw.AppendRow(table.Row{t.ID, t.AgentID, t.CrewID, t.Status, t.EstimatedTokens, actualTokens(t), t.RegisteredAt, t.Description})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&agentID, "agent", 0, "agent filter")
	return cmd
}

func taskKPIsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kpis",
		Short: "Completion rate, token efficiency and backlog per model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				kpis, err := b.TaskKPIs(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(kpis)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Model", "Completion", "Token efficiency", "Backlog"})
				for _, k := range kpis {
					tw.AppendRow(table.Row{k.Model, k.CompletionRate, k.TokenEfficiency, k.OpenBacklog})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func taskNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the oldest runnable pending task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				next, err := b.NextTask(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(next)
			})
		},
	}
}

func logTailCmd() *cobra.Command {
	var n int
	var f repo.EventFilters
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.LatestEvents(ctx, n, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Time", "Type", "Entity", "Payload"})
				for _, evt := range items {
					tw.AppendRow(table.Row{evt.ID, evt.TS, evt.Type, evt.EntityKind + " " + evt.EntityID, evt.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type filter")
	cmd.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&f.EntityID, "entity-id", "", "entity id")
	return cmd
}

func actualTokens(t domain.Task) string {
	if t.ActualTokensUsed == nil {
		return "-"
	}
	return strconv.Itoa(*t.ActualTokensUsed)
}
