package itembank

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/google/uuid"

	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/adaptive"
)

// Cognitive modules covered by the bank.
const (
	ModuleConcentration = "concentration"
	ModuleCalculation   = "calculation"
	ModuleSimulation    = "simulation"
)

// Payload is the item content the engine carries opaquely. Answer stays
// server-side; handlers strip it before serving.
type Payload struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
	Answer  string   `json:"answer,omitempty"`
}

// GeneratorConfig sizes the synthetic bank.
type GeneratorConfig struct {
	Modules   []string
	PerModule int // items per module, split evenly across difficulty tiers
}

// DefaultGeneratorConfig yields the standard 1,500-item bank.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Modules:   []string{ModuleConcentration, ModuleCalculation, ModuleSimulation},
		PerModule: 500,
	}
}

// Generator produces a synthetic item bank per cognitive module and
// difficulty tier. Content is templated; the adaptive engine never inspects
// it, so the generator's only contract is valid difficulty tags and unique
// ids.
type Generator struct {
	cfg    GeneratorConfig
	tuning adaptive.Tuning
	rng    *rand.Rand
}

// NewGenerator builds a generator for the given tier bounds.
func NewGenerator(cfg GeneratorConfig, tuning adaptive.Tuning, rng *rand.Rand) *Generator {
	if len(cfg.Modules) == 0 {
		cfg.Modules = DefaultGeneratorConfig().Modules
	}
	if cfg.PerModule <= 0 {
		cfg.PerModule = DefaultGeneratorConfig().PerModule
	}
	return &Generator{cfg: cfg, tuning: tuning, rng: rng}
}

// Generate builds the full bank. Items per module are split as evenly as
// possible across tiers, lower tiers absorbing the remainder.
func (g *Generator) Generate() []adaptive.Item {
	tiers := g.tuning.MaxDifficulty - g.tuning.MinDifficulty + 1
	items := make([]adaptive.Item, 0, g.cfg.PerModule*len(g.cfg.Modules))

	for _, module := range g.cfg.Modules {
		for tier := 0; tier < tiers; tier++ {
			difficulty := g.tuning.MinDifficulty + tier
			count := g.cfg.PerModule / tiers
			if tier < g.cfg.PerModule%tiers {
				count++
			}
			for i := 0; i < count; i++ {
				items = append(items, g.item(module, difficulty))
			}
		}
	}
	return items
}

func (g *Generator) item(module string, difficulty int) adaptive.Item {
	var payload Payload
	switch module {
	case ModuleCalculation:
		payload = g.calculationPayload(difficulty)
	case ModuleSimulation:
		payload = g.simulationPayload(difficulty)
	default:
		payload = g.concentrationPayload(difficulty)
	}

	raw, _ := json.Marshal(payload)
	return adaptive.Item{
		ID:         uuid.NewString(),
		Module:     module,
		Difficulty: difficulty,
		Payload:    raw,
	}
}

// concentrationPayload is a digit-span recall task; sequence length grows
// with the tier.
func (g *Generator) concentrationPayload(difficulty int) Payload {
	length := 3 + 2*difficulty
	seq := make([]byte, length)
	for i := range seq {
		seq[i] = byte('0' + g.rng.Intn(10))
	}
	return Payload{
		Prompt: fmt.Sprintf("Memorize this sequence, then enter it from memory: %s", string(seq)),
		Answer: string(seq),
	}
}

// calculationPayload is mental arithmetic with operand size and operation
// count scaled by tier, served as multiple choice.
func (g *Generator) calculationPayload(difficulty int) Payload {
	var prompt string
	var answer int
	switch difficulty {
	case 1:
		a, b := g.rng.Intn(40)+5, g.rng.Intn(40)+5
		prompt = fmt.Sprintf("%d + %d = ?", a, b)
		answer = a + b
	case 2:
		a, b := g.rng.Intn(12)+3, g.rng.Intn(12)+3
		prompt = fmt.Sprintf("%d x %d = ?", a, b)
		answer = a * b
	default:
		a, b, c := g.rng.Intn(12)+3, g.rng.Intn(12)+3, g.rng.Intn(50)+10
		prompt = fmt.Sprintf("%d x %d + %d = ?", a, b, c)
		answer = a*b + c
	}

	options := []string{fmt.Sprint(answer)}
	for len(options) < 4 {
		delta := g.rng.Intn(9) - 4
		if delta == 0 {
			continue
		}
		candidate := fmt.Sprint(answer + delta)
		if !contains(options, candidate) {
			options = append(options, candidate)
		}
	}
	g.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return Payload{Prompt: prompt, Options: options, Answer: fmt.Sprint(answer)}
}

var simulationScenarios = []string{
	"You are cooking pasta and the doorbell rings while the pot is about to boil over. What do you do first?",
	"Your bus leaves in 8 minutes and the stop is a 6 minute walk away, but you have not packed your bag. What do you do first?",
	"You are carrying groceries and your phone rings inside your pocket. What do you do first?",
	"The kettle is boiling, the toast pops up, and someone knocks on the door. What do you attend to first?",
}

// simulationPayload is an everyday-scenario judgment task; higher tiers add
// competing constraints to the prompt.
func (g *Generator) simulationPayload(difficulty int) Payload {
	scenario := simulationScenarios[g.rng.Intn(len(simulationScenarios))]
	if difficulty >= 2 {
		scenario += fmt.Sprintf(" You also have %d minutes before an appointment.", g.rng.Intn(10)+5)
	}
	if difficulty >= 3 {
		scenario += " A second task you started earlier needs attention in the next minute."
	}
	options := []string{
		"Handle the most time-critical task",
		"Finish the task already in hand",
		"Delegate or defer one task",
		"Pause everything and re-plan",
	}
	return Payload{Prompt: scenario, Options: options, Answer: options[0]}
}

// Statistics counts generated items per module and tier, mirroring the bank
// report printed at generation time.
func Statistics(items []adaptive.Item) map[string]map[int]int {
	stats := make(map[string]map[int]int)
	for _, it := range items {
		if stats[it.Module] == nil {
			stats[it.Module] = make(map[int]int)
		}
		stats[it.Module][it.Difficulty]++
	}
	return stats
}

// ExportJSON writes the bank to disk as indented JSON.
func ExportJSON(path string, items []adaptive.Item) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bank: %w", err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
