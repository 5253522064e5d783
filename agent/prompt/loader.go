package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/intent.txt
	intentRaw string

	//go:embed template/specialist.txt
	specialistRaw string
)

// PromptSet holds loaded prompt content.
// Specialist is an FString template over title, domain, goal and backstory.
type PromptSet struct {
	Classifier string
	Intent     string
	Specialist string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier: strings.TrimSpace(classifierRaw),
		Intent:     strings.TrimSpace(intentRaw),
		Specialist: strings.TrimSpace(specialistRaw),
	}
}
