package harness

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/idauction/internal/engine"
	"github.com/roach88/idauction/internal/ir"
)

// Scenario defines a conformance test scenario.
// Scenarios drive the engine through a sequence of ledger calls at
// controlled ledger times and assert on the resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config holds the role and namespace settings for the engine.
	Config ScenarioConfig `yaml:"config"`

	// Transfer configures the recording transferer used by withdraw.
	Transfer *TransferConfig `yaml:"transfer,omitempty"`

	// Steps are executed in order, each at its own ledger time.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	// Supported types: state, identifier, deposit, accounting, result,
	// whitelist, payout
	Assertions []Assertion `yaml:"assertions"`
}

// ScenarioConfig mirrors engine.Config in scenario files.
type ScenarioConfig struct {
	Supervisor ir.Address `yaml:"supervisor"`

	// Reserved overrides the default reserved range. An explicit empty
	// list reserves nothing.
	Reserved *[]ir.Range `yaml:"reserved,omitempty"`
}

// Engine converts the scenario config to an engine.Config.
func (c ScenarioConfig) Engine() engine.Config {
	cfg := engine.Config{Supervisor: c.Supervisor}
	if c.Reserved != nil {
		cfg.Reserved = append([]ir.Range{}, *c.Reserved...)
	}
	return cfg
}

// TransferConfig lists recipients whose payouts fail.
type TransferConfig struct {
	Refuse []ir.Address `yaml:"refuse"`
}

// Step is one ledger call. Time is either absolute (At, seconds) or
// relative to the previous step (Advance, a Go duration with an optional
// "d" suffix for days). With neither set the clock stays where it is.
type Step struct {
	At      *int64 `yaml:"at,omitempty"`
	Advance string `yaml:"advance,omitempty"`

	ir.Call `yaml:",inline"`

	// Expect specifies the expected outcome.
	// If nil, the call must commit.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the error a step must be rejected with.
type ExpectClause struct {
	Error engine.ErrorCode `yaml:"error"`
}

// Assertion validates one piece of the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "state": round cursor fields
	// - "identifier": registry entry of Identifier
	// - "deposit": withdrawable balance of Address
	// - "accounting": received, withdrawn and proceeds totals
	// - "result": outcome of closed round Round
	// - "whitelist": whitelist flag of Identifier
	// - "payout": total paid out to Address
	Type string `yaml:"type"`

	Identifier *ir.Identifier `yaml:"identifier,omitempty"`
	Address    ir.Address     `yaml:"address,omitempty"`
	Round      *uint64        `yaml:"round,omitempty"`

	// Expect contains expected field values.
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect"`
}

// Assertion type constants.
const (
	AssertState      = "state"
	AssertIdentifier = "identifier"
	AssertDeposit    = "deposit"
	AssertAccounting = "accounting"
	AssertResult     = "result"
	AssertWhitelist  = "whitelist"
	AssertPayout     = "payout"
)

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

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
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

	if s.Config.Supervisor.IsNone() {
		return fmt.Errorf("config.supervisor is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	if step.Op == "" {
		return fmt.Errorf("steps[%d]: call is required", index)
	}
	if !ir.ValidOps[step.Op] {
		return fmt.Errorf("steps[%d]: unknown call %q", index, step.Op)
	}
	if step.Caller.IsNone() {
		return fmt.Errorf("steps[%d]: caller is required", index)
	}
	if step.At != nil && step.Advance != "" {
		return fmt.Errorf("steps[%d]: at and advance are mutually exclusive", index)
	}
	if step.At != nil && *step.At < 0 {
		return fmt.Errorf("steps[%d]: at must be non-negative", index)
	}
	if step.Advance != "" {
		if _, err := ParseAdvance(step.Advance); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}
	if step.Expect != nil && step.Expect.Error == "" {
		return fmt.Errorf("steps[%d].expect: error is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if len(a.Expect) == 0 {
		return fmt.Errorf("assertions[%d]: expect is required", index)
	}

	switch a.Type {
	case AssertState, AssertAccounting:
	case AssertIdentifier, AssertWhitelist:
		if a.Identifier == nil {
			return fmt.Errorf("assertions[%d]: identifier is required for %s", index, a.Type)
		}
	case AssertDeposit, AssertPayout:
		if a.Address.IsNone() {
			return fmt.Errorf("assertions[%d]: address is required for %s", index, a.Type)
		}
	case AssertResult:
		if a.Round == nil {
			return fmt.Errorf("assertions[%d]: round is required for result", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// ParseAdvance parses a step advance. It accepts Go durations ("90s",
// "2h30m") and whole days ("8d").
func ParseAdvance(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid advance %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid advance %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid advance %q: negative", s)
	}
	return d, nil
}
