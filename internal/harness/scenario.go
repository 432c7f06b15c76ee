package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/storecart/internal/cart"
)

// Scenario defines one cart conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed is the durable payload present before the engine loads.
	Seed *Seed `yaml:"seed,omitempty"`

	// Remote enables the remote mirror.
	Remote RemoteSetup `yaml:"remote,omitempty"`

	// Steps are applied in order through the engine API.
	Steps []Step `yaml:"steps"`

	// Expect is evaluated after the last step and a mirror drain.
	Expect Expect `yaml:"expect"`
}

// Seed is either a list of lines or a raw payload string, e.g. "corrupt".
type Seed struct {
	Lines []Line
	Raw   string
}

// UnmarshalYAML accepts a scalar (raw payload) or a sequence of lines.
func (s *Seed) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Decode(&s.Raw)
	case yaml.SequenceNode:
		return n.Decode(&s.Lines)
	}
	return fmt.Errorf("line %d: seed must be a string or a list of lines", n.Line)
}

// Payload returns the bytes written under the cart key.
func (s *Seed) Payload() ([]byte, error) {
	if s.Lines == nil {
		return []byte(s.Raw), nil
	}
	c := make(cart.Cart, 0, len(s.Lines))
	for _, l := range s.Lines {
		c = append(c, l.Item())
	}
	return cart.Marshal(c)
}

// RemoteSetup configures the scenario's remote mirror.
type RemoteSetup struct {
	Enabled bool `yaml:"enabled"`
	// Fail makes every remote call return an error.
	Fail bool `yaml:"fail"`
}

// Line is a cart line as written in scenario files.
type Line struct {
	ProductID    string  `yaml:"product_id"`
	VariantID    string  `yaml:"variant_id,omitempty"`
	VariantTitle string  `yaml:"variant_title,omitempty"`
	Name         string  `yaml:"name,omitempty"`
	Slug         string  `yaml:"slug,omitempty"`
	Image        string  `yaml:"image,omitempty"`
	Price        float64 `yaml:"price"`
	Quantity     int     `yaml:"quantity,omitempty"`
}

// Item converts the line to a cart item.
func (l Line) Item() cart.Item {
	return cart.Item{
		ProductID:    l.ProductID,
		VariantID:    l.VariantID,
		VariantTitle: l.VariantTitle,
		Name:         l.Name,
		Slug:         l.Slug,
		Image:        l.Image,
		Price:        l.Price,
		Quantity:     l.Quantity,
	}
}

// Step is one engine call.
type Step struct {
	// Op is add, remove, update, clear or undo.
	Op string `yaml:"op"`

	// Item is the product to add (add only).
	Item *Line `yaml:"item,omitempty"`

	// ProductID targets remove and update.
	ProductID string `yaml:"product_id,omitempty"`

	// Quantity is the add delta (default 1) or the update target.
	Quantity *int `yaml:"quantity,omitempty"`
}

// Step ops.
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpUpdate = "update"
	OpClear  = "clear"
	OpUndo   = "undo"
)

// Expect holds the expected final state. Nil fields are not checked.
type Expect struct {
	// Items is the expected committed cart, in order.
	Items []ExpectedLine `yaml:"items"`

	// Total is a decimal string, e.g. "20" or "12.5".
	Total *string `yaml:"total,omitempty"`

	ItemCount   *int  `yaml:"item_count,omitempty"`
	CanUndo     *bool `yaml:"can_undo,omitempty"`
	RemoteCalls *int  `yaml:"remote_calls,omitempty"`
}

// ExpectedLine is one expected cart line.
type ExpectedLine struct {
	ProductID string `yaml:"product_id"`
	Quantity  int    `yaml:"quantity"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	if s.Seed != nil {
		for i, l := range s.Seed.Lines {
			if l.ProductID == "" {
				return fmt.Errorf("seed[%d]: product_id is required", i)
			}
		}
	}
	if s.Expect.RemoteCalls != nil && !s.Remote.Enabled {
		return fmt.Errorf("expect.remote_calls requires remote.enabled")
	}
	return nil
}

func validateStep(i int, step Step) error {
	switch step.Op {
	case OpAdd:
		if step.Item == nil || step.Item.ProductID == "" {
			return fmt.Errorf("steps[%d]: add requires item.product_id", i)
		}
	case OpRemove:
		if step.ProductID == "" {
			return fmt.Errorf("steps[%d]: remove requires product_id", i)
		}
	case OpUpdate:
		if step.ProductID == "" {
			return fmt.Errorf("steps[%d]: update requires product_id", i)
		}
		if step.Quantity == nil {
			return fmt.Errorf("steps[%d]: update requires quantity", i)
		}
	case OpClear, OpUndo:
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
	}
	return nil
}
