package analysis_test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"uxscope/analysis"
	"uxscope/prompt"
)

var _ = Describe("CombineStages", func() {

	It("joins stages under banners in stage order", func() {
		combined := analysis.CombineStages([]analysis.StageText{
			{Number: 3, Name: "Custom Navigation / Stress Test", Content: "stress notes"},
			{Number: 1, Name: "Basic Exploration", Content: "basic notes"},
			{Number: 2, Name: "Persona Analysis", Content: "persona notes"},
		})

		first := strings.Index(combined, "=== STAGE 1: Basic Exploration ===")
		second := strings.Index(combined, "=== STAGE 2: Persona Analysis ===")
		third := strings.Index(combined, "=== STAGE 3: Custom Navigation / Stress Test ===")
		Expect(first).To(BeNumerically(">=", 0))
		Expect(second).To(BeNumerically(">", first))
		Expect(third).To(BeNumerically(">", second))
		Expect(combined).To(ContainSubstring("\n\n=== STAGE 1: Basic Exploration ===\n\nbasic notes"))
	})

	It("does not reorder the caller's slice", func() {
		stages := []analysis.StageText{
			{Number: 2, Name: "Persona Analysis", Content: "b"},
			{Number: 1, Name: "Basic Exploration", Content: "a"},
		}
		analysis.CombineStages(stages)
		Expect(stages[0].Number).To(Equal(2))
	})
})

var _ = Describe("StripFences", func() {

	It("removes a json fence", func() {
		Expect(analysis.StripFences("```json\n{\"a\": 1}\n```")).To(Equal(`{"a": 1}`))
	})

	It("removes a bare fence", func() {
		Expect(analysis.StripFences("```\n{\"a\": 1}\n```")).To(Equal(`{"a": 1}`))
	})

	It("passes unfenced text through", func() {
		Expect(analysis.StripFences(`{"a": 1}`)).To(Equal(`{"a": 1}`))
	})

	It("tolerates a missing closing fence", func() {
		Expect(analysis.StripFences("```json\n{\"a\": 1}")).To(Equal(`{"a": 1}`))
	})
})

var _ = Describe("Aggregator", func() {
	var (
		provider *fakeProvider
		agg      *analysis.Aggregator
		stages   []analysis.StageText
	)

	BeforeEach(func() {
		provider = &fakeProvider{}
		agg = analysis.NewAggregator(newFakeClient(provider), &prompt.Store{}, nil)
		stages = []analysis.StageText{
			{Number: 1, Name: "Basic Exploration", Content: "found 12 screens"},
			{Number: 2, Name: "Persona Analysis", Content: "navigation is shallow"},
			{Number: 3, Name: "Custom Navigation / Stress Test", Content: "no crashes"},
		}
	})

	It("produces a normalized report from a fenced model response", func() {
		provider.response = "```json\n" + `{
  "summary": "Solid app with minor navigation issues.",
  "ux_confidence_score": {"score": 8},
  "complexity_score": 3
}` + "\n```"

		syn, err := agg.Aggregate(context.Background(), "Maps", "navigation", "UX Designer", stages)
		Expect(err).NotTo(HaveOccurred())
		Expect(syn.UXConfidence).To(Equal(float64(8)))
		Expect(syn.Complexity).To(Equal(float64(3)))
		Expect(syn.Report["summary"]).To(Equal("Solid app with minor navigation issues."))

		// Defaults filled in around the sparse response.
		Expect(syn.Report["issues"]).To(Equal([]any{}))
		insights := syn.Report["persona_insights"].(map[string]any)
		Expect(insights["persona"]).To(Equal("UX Designer"))

		Expect(string(syn.RawJSON)).To(ContainSubstring(`"summary"`))
	})

	It("sends every stage's content in one prompt", func() {
		provider.response = "{}"

		_, err := agg.Aggregate(context.Background(), "Maps", "navigation", "UX Designer", stages)
		Expect(err).NotTo(HaveOccurred())
		Expect(provider.prompts).To(HaveLen(1))
		sent := provider.prompts[0]
		Expect(sent).To(ContainSubstring("found 12 screens"))
		Expect(sent).To(ContainSubstring("navigation is shallow"))
		Expect(sent).To(ContainSubstring("no crashes"))
		Expect(sent).To(ContainSubstring("Maps"))
	})

	It("wraps completion failures", func() {
		provider.err = fmt.Errorf("rate limited")

		_, err := agg.Aggregate(context.Background(), "Maps", "", "UX Designer", stages)
		var synErr *analysis.SynthesisError
		Expect(errors.As(err, &synErr)).To(BeTrue())
		Expect(synErr.Op).To(Equal("completion"))
	})

	It("wraps parse failures and keeps the raw text", func() {
		provider.response = "Sorry, I cannot produce JSON today."

		_, err := agg.Aggregate(context.Background(), "Maps", "", "UX Designer", stages)
		var synErr *analysis.SynthesisError
		Expect(errors.As(err, &synErr)).To(BeTrue())
		Expect(synErr.Op).To(Equal("parse"))
		Expect(synErr.Snippet()).To(ContainSubstring("Sorry"))
	})
})
