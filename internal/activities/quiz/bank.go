package quiz

import (
	"embed"
	"fmt"
	"path"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed banks/*.yaml
var bankFS embed.FS

// Question is a multiple-choice question.
type Question struct {
	Prompt  string   `yaml:"prompt"`
	Options []string `yaml:"options"`
	Answer  int      `yaml:"answer"` // Index into Options
}

// Bank is a named set of questions.
type Bank struct {
	Variant   string     `yaml:"variant"`
	Title     string     `yaml:"title"`
	Questions []Question `yaml:"questions"`
}

// ParseBank decodes and checks a question bank.
func ParseBank(data []byte) (Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Bank{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if b.Variant == "" {
		return Bank{}, fmt.Errorf("bank has no variant")
	}
	if len(b.Questions) == 0 {
		return Bank{}, fmt.Errorf("bank %q has no questions", b.Variant)
	}
	for i, q := range b.Questions {
		if len(q.Options) < 2 {
			return Bank{}, fmt.Errorf("bank %q question %d needs at least two options", b.Variant, i+1)
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return Bank{}, fmt.Errorf("bank %q question %d answer out of range", b.Variant, i+1)
		}
	}
	return b, nil
}

// loadBanks reads every embedded bank, keyed by variant.
func loadBanks() (map[string]Bank, error) {
	entries, err := bankFS.ReadDir("banks")
	if err != nil {
		return nil, err
	}
	banks := make(map[string]Bank, len(entries))
	for _, e := range entries {
		data, err := bankFS.ReadFile(path.Join("banks", e.Name()))
		if err != nil {
			return nil, err
		}
		b, err := ParseBank(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		banks[b.Variant] = b
	}
	return banks, nil
}

func variantNames(banks map[string]Bank) []string {
	names := make([]string, 0, len(banks))
	for v := range banks {
		names = append(names, v)
	}
	sort.Strings(names)
	return names
}
