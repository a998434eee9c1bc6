package analysis

// defaultReport builds the baseline document every report must contain.
// Missing scores come back neutral rather than zero so a sparse model
// response does not read as a catastrophic app.
func defaultReport(persona string) Report {
	return Report{
		"summary":         "UX analysis completed.",
		"positive":        []any{},
		"issues":          []any{},
		"recommendations": []any{},
		"app_metadata": map[string]any{
			"screens_discovered": float64(0),
			"total_interactions": float64(0),
			"core_flows":         []any{},
		},
		"exploration_coverage": map[string]any{
			"screens_discovered":        float64(0),
			"clickable_elements_found":  float64(0),
			"successful_actions_pct":    float64(0),
			"dead_elements_pct":         float64(0),
			"navigation_loops_detected": false,
		},
		"navigation_metrics": map[string]any{
			"avg_depth":              float64(0),
			"max_depth":              float64(0),
			"backtracking_frequency": "low",
			"orphan_screens":         float64(0),
			"hub_screen_count":       float64(0),
			"architecture_quality":   "moderate",
		},
		"interaction_feedback": map[string]any{
			"visible_feedback_rate_pct":  float64(0),
			"loading_state_presence_pct": float64(0),
			"error_message_clarity":      float64(5),
			"silent_failures":            float64(0),
			"feedback_quality":           "moderate",
		},
		"visual_hierarchy": map[string]any{
			"cta_visibility":            float64(5),
			"tap_target_compliance_pct": float64(0),
			"icon_label_clarity":        float64(5),
			"clarity_rating":            "moderate",
		},
		"consistency": map[string]any{
			"reused_patterns":           []any{},
			"inconsistent_labels":       float64(0),
			"action_placement_variance": "low",
			"pattern_violations":        float64(0),
		},
		"error_handling": map[string]any{
			"preventable_errors":        float64(0),
			"recovery_paths_available":  false,
			"error_explanation_quality": float64(5),
			"handling_rating":           "moderate",
		},
		"ux_confidence_score": map[string]any{
			"score": float64(5),
			"factors": map[string]any{
				"exploration_coverage":    float64(5),
				"interaction_consistency": float64(5),
				"feedback_reliability":    float64(5),
				"recovery_robustness":     float64(5),
			},
		},
		"complexity_score":       float64(5),
		"dark_patterns_detected": []any{},
		"actor_analysis":         []any{},
		"persona_insights": map[string]any{
			"persona":          persona,
			"key_observations": []any{},
			"alignment_score":  float64(5),
		},
	}
}

// Normalize fills any missing top-level fields, and missing keys inside
// object-valued fields, with their defaults. The input map is modified in
// place and returned. Running it twice is a no-op.
func Normalize(data Report, persona string) Report {
	if data == nil {
		data = Report{}
	}
	for key, def := range defaultReport(persona) {
		existing, ok := data[key]
		if !ok {
			data[key] = def
			continue
		}
		defObj, defIsObj := def.(map[string]any)
		if !defIsObj {
			continue
		}
		obj, objOK := existing.(map[string]any)
		if !objOK {
			data[key] = def
			continue
		}
		for subKey, subDef := range defObj {
			if _, present := obj[subKey]; !present {
				obj[subKey] = subDef
			}
		}
	}
	return data
}

const neutralScore = 5

// UXConfidence pulls ux_confidence_score.score out of a report, falling back
// to the neutral midpoint when absent or malformed.
func UXConfidence(data Report) float64 {
	obj, ok := data["ux_confidence_score"].(map[string]any)
	if !ok {
		return neutralScore
	}
	return numberOr(obj["score"], neutralScore)
}

// Complexity pulls complexity_score out of a report.
func Complexity(data Report) float64 {
	return numberOr(data["complexity_score"], neutralScore)
}

func numberOr(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return fallback
	}
}
