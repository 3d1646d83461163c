package domain

import "time"

// TimeLayout is the ISO-8601 form used for every persisted timestamp.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts the timestamp shapes clients send for dates. Values
// without a zone are read in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	var lastErr error
	for _, layout := range []string{time.RFC3339Nano, TimeLayout, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []OrderStatus{OrderPending, OrderProcessing, OrderCompleted, OrderCancelled}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type CatalogItem struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Winery   string  `json:"winery,omitempty" yaml:"winery"`
	Vintage  int     `json:"vintage,omitempty" yaml:"vintage"`
	Category string  `json:"category,omitempty" yaml:"category"`
	Price    float64 `json:"price" yaml:"price" minimum:"0"`
}

type OrderItem struct {
	ID          string      `json:"id"`
	CatalogItem CatalogItem `json:"catalogItem"`
	Quantity    int         `json:"quantity" minimum:"1"`
	UnitPrice   float64     `json:"unitPrice"`
	LineTotal   float64     `json:"lineTotal"`
}

type Order struct {
	ID               string      `json:"id"`
	Code             string      `json:"code"`
	CustomerName     string      `json:"customerName"`
	CustomerEmail    string      `json:"customerEmail,omitempty"`
	Status           OrderStatus `json:"status" enum:"pending,processing,completed,cancelled"`
	CreatedAt        string      `json:"createdAt" format:"date-time"`
	ExpectedDelivery string      `json:"expectedDelivery" format:"date-time"`
	Notes            string      `json:"notes,omitempty"`
	Items            []OrderItem `json:"items"`
	Subtotal         float64     `json:"subtotal"`
	Tax              float64     `json:"tax"`
	Total            float64     `json:"total"`
}

type AgentRole string

const (
	RolePlanner    AgentRole = "PLANNER"
	RoleAnalyst    AgentRole = "ANALYST"
	RoleResearcher AgentRole = "RESEARCHER"
	RoleCoder      AgentRole = "CODER"
)

type AgentModel string

const (
	ModelGPT5     AgentModel = "GPT-5"
	ModelClaude45 AgentModel = "CLAUDE-4.5"
	ModelLlama4   AgentModel = "LLAMA-4"
	ModelGemini25 AgentModel = "GEMINI-2.5"
)

// AgentModels is the fixed model order used for task KPIs.
var AgentModels = []AgentModel{ModelGPT5, ModelClaude45, ModelLlama4, ModelGemini25}

type AgentStatus string

const (
	AgentAvailable AgentStatus = "AVAILABLE"
	AgentBusy      AgentStatus = "BUSY"
	AgentOffline   AgentStatus = "OFFLINE"
)

type Agent struct {
	ID               int64       `json:"id" yaml:"id"`
	Name             string      `json:"name" yaml:"name"`
	Role             AgentRole   `json:"role" yaml:"role" enum:"PLANNER,ANALYST,RESEARCHER,CODER"`
	ModelUsed        AgentModel  `json:"modelUsed" yaml:"model_used" enum:"GPT-5,CLAUDE-4.5,LLAMA-4,GEMINI-2.5"`
	MaxTokensPerTask int         `json:"maxTokensPerTask" yaml:"max_tokens_per_task"`
	Status           AgentStatus `json:"status" yaml:"status" enum:"AVAILABLE,BUSY,OFFLINE"`
}

type CrewStatus string

const (
	CrewPlanned  CrewStatus = "PLANNED"
	CrewActive   CrewStatus = "ACTIVE"
	CrewFinished CrewStatus = "FINISHED"
)

type Crew struct {
	ID          int64      `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Objective   string     `json:"objective" yaml:"objective"`
	LeadAgentID int64      `json:"leadAgentId" yaml:"lead_agent_id"`
	Status      CrewStatus `json:"status" yaml:"status" enum:"PLANNED,ACTIVE,FINISHED"`
	StartedAt   string     `json:"startedAt" yaml:"started_at"`
	FinishedAt  *string    `json:"finishedAt" yaml:"finished_at"`
}

type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskRunning   TaskStatus = "RUNNING"
	TaskFailed    TaskStatus = "FAILED"
	TaskCompleted TaskStatus = "COMPLETED"
)

type Task struct {
	ID               int64      `json:"id"`
	CrewID           int64      `json:"crewId"`
	AgentID          int64      `json:"agentId"`
	Description      string     `json:"description"`
	EstimatedTokens  int        `json:"estimatedTokens"`
	ActualTokensUsed *int       `json:"actualTokensUsed"`
	Status           TaskStatus `json:"status" enum:"PENDING,RUNNING,FAILED,COMPLETED"`
	RegisteredAt     string     `json:"registeredAt" format:"date-time"`
	FinishedAt       *string    `json:"finishedAt"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entityKind"`
	EntityID   string `json:"entityId,omitempty"`
	Payload    string `json:"payload"`
}
