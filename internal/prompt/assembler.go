// Package prompt renders the system and message prompts for program
// generation from a user's ordered assessment answers. Rendering is
// deterministic: identical inputs always produce byte-identical prompts,
// which is what makes audit rows comparable across runs.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mkorthuis/northern-backend/internal/assessment"
)

// ErrTemplateVersion is returned for an unknown template version.
var ErrTemplateVersion = errors.New("prompt: unknown template version")

type template struct {
	system  string
	message string
}

// templates is the registry of prompt template versions. New versions are
// added here; old versions are never edited so historical audits stay
// reproducible.
var templates = map[string]template{
	"v1": {
		system: "You are a program advisor. Using the assessment answers provided, " +
			"write a personalized recommendation program for the user. " +
			"Be specific and actionable. Respond with the program text only.",
		message: "The user completed an assessment with the following answers:\n\n{{answers}}\n" +
			"Generate their personalized program.",
	},
}

// Versions lists the known template versions.
func Versions() []string {
	out := make([]string, 0, len(templates))
	for v := range templates {
		out = append(out, v)
	}
	return out
}

// Assemble renders the system and message prompts for the given response set
// and template version.
func Assemble(set *assessment.ResponseSet, version string) (system, message string, err error) {
	tpl, ok := templates[version]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrTemplateVersion, version)
	}

	var b strings.Builder
	for i, a := range set.Answers {
		fmt.Fprintf(&b, "%d. %s\n", i+1, escapeValue(a.Question.Question))
		if len(a.Question.Options) > 0 {
			fmt.Fprintf(&b, "   Options: %s\n", escapeValue(strings.Join(a.Question.Options, ", ")))
		}
		fmt.Fprintf(&b, "   Answer: %s\n", escapeValue(a.Value))
	}

	message, err = Render(tpl.message, map[string]string{"answers": b.String()})
	if err != nil {
		return "", "", fmt.Errorf("render message prompt: %w", err)
	}
	return tpl.system, message, nil
}

// escapeValue neutralizes template control sequences and control characters
// in user-supplied text so answers cannot inject template directives.
func escapeValue(v string) string {
	v = strings.ReplaceAll(v, "{{", "{ {")
	v = strings.ReplaceAll(v, "}}", "} }")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, v)
}
