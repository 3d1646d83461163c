package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"wineinventory/internal/domain"
	"wineinventory/internal/orders"
)

// Config models wineinventory.yml.
type Config struct {
	Pricing struct {
		TaxRate      float64 `yaml:"tax_rate" json:"tax_rate"`
		DeliveryDays int     `yaml:"delivery_days" json:"delivery_days"`
		CodePrefix   string  `yaml:"code_prefix" json:"code_prefix"`
		Timezone     string  `yaml:"timezone" json:"timezone"`
	} `yaml:"pricing" json:"pricing"`
	Server struct {
		Addr     string `yaml:"addr" json:"addr"`
		BasePath string `yaml:"base_path" json:"base_path"`
	} `yaml:"server" json:"server"`
	Seed struct {
		Catalog []domain.CatalogItem `yaml:"catalog" json:"catalog"`
		Agents  []domain.Agent       `yaml:"agents" json:"agents"`
		Crews   []domain.Crew        `yaml:"crews" json:"crews"`
		Orders  bool                 `yaml:"orders" json:"orders"`
	} `yaml:"seed" json:"seed"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with wi config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Pricing.TaxRate < 0 || c.Pricing.TaxRate >= 1 {
		return fmt.Errorf("config.pricing.tax_rate must be in [0,1)")
	}
	if c.Pricing.DeliveryDays < 0 {
		return fmt.Errorf("config.pricing.delivery_days must not be negative")
	}
	if c.Pricing.CodePrefix == "" {
		return fmt.Errorf("config.pricing.code_prefix is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config.pricing.timezone: %w", err)
	}
	seen := map[string]bool{}
	for _, it := range c.Seed.Catalog {
		if it.ID == "" {
			return fmt.Errorf("seed catalog item %q has empty id", it.Name)
		}
		if seen[it.ID] {
			return fmt.Errorf("seed catalog item %s is duplicated", it.ID)
		}
		seen[it.ID] = true
		if it.Price < 0 {
			return fmt.Errorf("seed catalog item %s has negative price", it.ID)
		}
	}
	agents := map[int64]bool{}
	for _, a := range c.Seed.Agents {
		if a.ID <= 0 {
			return fmt.Errorf("seed agent %q needs a positive id", a.Name)
		}
		if a.MaxTokensPerTask <= 0 {
			return fmt.Errorf("seed agent %d needs a positive max_tokens_per_task", a.ID)
		}
		agents[a.ID] = true
	}
	for _, cr := range c.Seed.Crews {
		if cr.ID <= 0 {
			return fmt.Errorf("seed crew %q needs a positive id", cr.Name)
		}
		switch cr.Status {
		case domain.CrewPlanned, domain.CrewActive, domain.CrewFinished:
		default:
			return fmt.Errorf("seed crew %d has unknown status %s", cr.ID, cr.Status)
		}
		if len(agents) > 0 && !agents[cr.LeadAgentID] {
			return fmt.Errorf("seed crew %d references unknown lead agent %d", cr.ID, cr.LeadAgentID)
		}
	}
	return nil
}

// Location resolves the configured timezone; empty means the host's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Pricing.Timezone == "" || c.Pricing.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Pricing.Timezone)
}

// OrderPricing converts the pricing section for the orders package.
func (c *Config) OrderPricing() orders.Pricing {
	loc, err := c.Location()
	if err != nil {
		loc = time.Local
	}
	return orders.Pricing{
		TaxRate:      c.Pricing.TaxRate,
		DeliveryDays: c.Pricing.DeliveryDays,
		CodePrefix:   c.Pricing.CodePrefix,
		Location:     loc,
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "wineinventory.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Missing pricing
// knobs fall back to the defaults.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	cfg.Pricing.TaxRate = orders.DefaultTaxRate
	cfg.Pricing.DeliveryDays = orders.DefaultDeliveryDays
	cfg.Pricing.CodePrefix = orders.DefaultCodePrefix
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `pricing:
  tax_rate: 0.19
  delivery_days: 4
  code_prefix: WI
  timezone: Local

server:
  addr: 127.0.0.1:3000
  base_path: /api

seed:
  orders: true
  catalog:
    - id: wine-001
      name: Malbec Reserva 2019
      winery: Bodega Los Andes
      vintage: 2019
      category: red
      price: 18.5
    - id: wine-002
      name: Cabernet Sauvignon 2020
      winery: Viña del Valle
      vintage: 2020
      category: red
      price: 22.9
    - id: wine-003
      name: Chardonnay Barrica 2021
      winery: Finca La Costa
      vintage: 2021
      category: white
      price: 16.75
    - id: wine-004
      name: Rosado de Garnacha 2022
      winery: Bodega El Roble
      vintage: 2022
      category: rose
      price: 12.4
    - id: wine-005
      name: Espumante Brut Nature
      winery: Casa Burbuja
      category: sparkling
      price: 27.3

  agents:
    - id: 1
      name: Atlas
      role: PLANNER
      model_used: GPT-5
      max_tokens_per_task: 8000
      status: AVAILABLE
    - id: 2
      name: Iris
      role: ANALYST
      model_used: CLAUDE-4.5
      max_tokens_per_task: 12000
      status: AVAILABLE
    - id: 3
      name: Nova
      role: RESEARCHER
      model_used: LLAMA-4
      max_tokens_per_task: 4000
      status: BUSY
    - id: 4
      name: Byte
      role: CODER
      model_used: GEMINI-2.5
      max_tokens_per_task: 6000
      status: OFFLINE

  crews:
    - id: 1
      name: Cellar Forecast
      objective: Forecast stock for the next quarter
      lead_agent_id: 1
      status: ACTIVE
      started_at: "2025-01-06T09:00:00.000Z"
    - id: 2
      name: Label Review
      objective: Review label compliance for new vintages
      lead_agent_id: 2
      status: PLANNED
      started_at: "2025-03-01T09:00:00.000Z"
    - id: 3
      name: Harvest Report
      objective: Summarize the 2024 harvest
      lead_agent_id: 3
      status: FINISHED
      started_at: "2024-09-01T09:00:00.000Z"
      finished_at: "2024-11-30T18:00:00.000Z"
`
