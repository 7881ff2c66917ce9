package dataset

import "fmt"

// Mode selects which part of an item is embedded.
type Mode string

const (
	ModeSeed            Mode = "seed"
	ModeProblem         Mode = "problem"
	ModeSolution        Mode = "solution"
	ModeProblemSolution Mode = "problem-solution"
)

// AllModes lists every valid embedding mode.
var AllModes = []Mode{ModeSeed, ModeProblem, ModeSolution, ModeProblemSolution}

// illustrationTemplate renders a problem/solution pair as a single text
// for the problem-solution mode.
const illustrationTemplate = "[Problem]\n%s\n\n[Solution]\n%s"

// ParseMode validates a mode string. Unrecognized values are a configuration
// error; callers must reject them before any model call is made.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	for _, valid := range AllModes {
		if m == valid {
			return m, nil
		}
	}
	return "", fmt.Errorf("unrecognized embedding mode %q (valid: seed, problem, solution, problem-solution)", s)
}

// DeriveText returns the text to embed for item under mode m. The switch is
// exhaustive over AllModes; the error arm is unreachable for modes produced
// by ParseMode.
func DeriveText(item Item, m Mode) (string, error) {
	switch m {
	case ModeSeed:
		return item.Seed, nil
	case ModeProblem:
		return item.Problem, nil
	case ModeSolution:
		return item.Solution, nil
	case ModeProblemSolution:
		return fmt.Sprintf(illustrationTemplate, item.Problem, item.Solution), nil
	default:
		return "", fmt.Errorf("unrecognized embedding mode %q", m)
	}
}

// DeriveTexts maps DeriveText over a dataset, preserving order.
func DeriveTexts(items []Item, m Mode) ([]string, error) {
	texts := make([]string, len(items))
	for i, item := range items {
		text, err := DeriveText(item, m)
		if err != nil {
			return nil, err
		}
		texts[i] = text
	}
	return texts, nil
}
