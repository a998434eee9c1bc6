package analysis_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"uxscope/analysis"
)

var _ = Describe("Normalize", func() {

	It("fills a nil report with every default field", func() {
		report := analysis.Normalize(nil, "QA Engineer")
		Expect(report["summary"]).To(Equal("UX analysis completed."))
		Expect(report["positive"]).To(Equal([]any{}))
		Expect(report["issues"]).To(Equal([]any{}))
		Expect(report["recommendations"]).To(Equal([]any{}))
		Expect(report["complexity_score"]).To(Equal(float64(5)))

		confidence := report["ux_confidence_score"].(map[string]any)
		Expect(confidence["score"]).To(Equal(float64(5)))
		factors := confidence["factors"].(map[string]any)
		Expect(factors["exploration_coverage"]).To(Equal(float64(5)))

		nav := report["navigation_metrics"].(map[string]any)
		Expect(nav["backtracking_frequency"]).To(Equal("low"))
		Expect(nav["architecture_quality"]).To(Equal("moderate"))
	})

	It("injects the persona into persona_insights", func() {
		report := analysis.Normalize(analysis.Report{}, "Product Manager")
		insights := report["persona_insights"].(map[string]any)
		Expect(insights["persona"]).To(Equal("Product Manager"))
		Expect(insights["alignment_score"]).To(Equal(float64(5)))
	})

	It("keeps existing values and fills only missing sub-keys", func() {
		report := analysis.Report{
			"summary": "Checkout flow is confusing.",
			"visual_hierarchy": map[string]any{
				"cta_visibility": float64(9),
			},
		}
		report = analysis.Normalize(report, "UX Designer")

		Expect(report["summary"]).To(Equal("Checkout flow is confusing."))
		visual := report["visual_hierarchy"].(map[string]any)
		Expect(visual["cta_visibility"]).To(Equal(float64(9)))
		Expect(visual["icon_label_clarity"]).To(Equal(float64(5)))
		Expect(visual["clarity_rating"]).To(Equal("moderate"))
	})

	It("replaces non-object values where an object is expected", func() {
		report := analysis.Report{"error_handling": "pretty good"}
		report = analysis.Normalize(report, "UX Designer")
		handling, ok := report["error_handling"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(handling["handling_rating"]).To(Equal("moderate"))
	})

	It("is idempotent", func() {
		report := analysis.Normalize(analysis.Report{"summary": "once"}, "UX Designer")
		again := analysis.Normalize(report, "UX Designer")
		Expect(again).To(Equal(report))
	})
})

var _ = Describe("Scores", func() {

	It("extracts the confidence score", func() {
		report := analysis.Report{
			"ux_confidence_score": map[string]any{"score": float64(7.5)},
		}
		Expect(analysis.UXConfidence(report)).To(Equal(7.5))
	})

	It("falls back to neutral for missing or malformed confidence", func() {
		Expect(analysis.UXConfidence(analysis.Report{})).To(Equal(float64(5)))
		Expect(analysis.UXConfidence(analysis.Report{
			"ux_confidence_score": "high",
		})).To(Equal(float64(5)))
		Expect(analysis.UXConfidence(analysis.Report{
			"ux_confidence_score": map[string]any{"score": "high"},
		})).To(Equal(float64(5)))
	})

	It("extracts the complexity score with a neutral fallback", func() {
		Expect(analysis.Complexity(analysis.Report{"complexity_score": float64(3)})).To(Equal(float64(3)))
		Expect(analysis.Complexity(analysis.Report{})).To(Equal(float64(5)))
	})
})
