package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
)

//go:embed template/extractor.txt
var extractorRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Extractor string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Extractor: strings.TrimSpace(extractorRaw),
	}
}

// Validate rejects empty prompts and braces, which the f-string chat
// template would read as placeholders.
func (p PromptSet) Validate() error {
	if p.Extractor == "" {
		return fmt.Errorf("%w: extractor", contractx.ErrPromptMissing)
	}
	if strings.ContainsAny(p.Extractor, "{}") {
		return fmt.Errorf("%w: extractor prompt must not contain braces", contractx.ErrValidation)
	}
	return nil
}
