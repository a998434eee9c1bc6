package explore

import (
	"fmt"
	"strconv"

	"uxscope/prompt"
)

// PromptBuilder assembles the exploration goal for each agent-driven stage
// from the template store.
type PromptBuilder struct {
	Store *prompt.Store
}

// BasicExploration builds the stage 1 goal.
func (b *PromptBuilder) BasicExploration(appName, category string) (string, error) {
	return b.Store.GetAndRender("stage1_basic_exploration", prompt.Vars{
		"app_name": appName,
		"category": category,
	})
}

// PersonaAnalysis builds the stage 2 goal: the persona framing prompt
// followed by the stage instructions.
func (b *PromptBuilder) PersonaAnalysis(appName, category, persona string, maxDepth int, customNavigation string) (string, error) {
	slug := PersonaSlug(persona)
	personaPrompt, err := b.Store.GetAndRender("persona_"+slug, prompt.Vars{
		"app_name": appName,
		"category": category,
	})
	if err != nil {
		return "", err
	}

	stagePrompt, err := b.Store.GetAndRender("stage2_persona_analysis", prompt.Vars{
		"app_name":                      appName,
		"category":                      category,
		"persona":                       persona,
		"max_depth":                     strconv.Itoa(maxDepth),
		"custom_navigation_instruction": navigationInstruction(customNavigation, "Explore naturally as the persona would."),
	})
	if err != nil {
		return "", err
	}

	return personaPrompt + "\n\n" + stagePrompt, nil
}

// StressTest builds the stage 3 goal.
func (b *PromptBuilder) StressTest(appName, category, customNavigation string) (string, error) {
	return b.Store.GetAndRender("stage3_stress_exploration", prompt.Vars{
		"app_name":                      appName,
		"category":                      category,
		"custom_navigation_instruction": navigationInstruction(customNavigation, "Simulate imperfect user behavior with random navigation and mistaps."),
	})
}

func navigationInstruction(customNavigation, fallback string) string {
	if customNavigation != "" {
		return fmt.Sprintf("Follow these custom navigation instructions: %s", customNavigation)
	}
	return "No custom navigation provided. " + fallback
}
