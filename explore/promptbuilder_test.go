package explore_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"uxscope/explore"
	"uxscope/prompt"
)

var _ = Describe("PromptBuilder", func() {
	var b *explore.PromptBuilder

	BeforeEach(func() {
		b = &explore.PromptBuilder{Store: &prompt.Store{}}
	})

	It("builds the basic exploration goal", func() {
		goal, err := b.BasicExploration("Metro Times", "news")
		Expect(err).NotTo(HaveOccurred())
		Expect(goal).To(ContainSubstring("Metro Times"))
		Expect(goal).To(ContainSubstring("news"))
	})

	It("prefixes the persona framing onto the stage 2 goal", func() {
		goal, err := b.PersonaAnalysis("Metro Times", "news", "QA Engineer", 6, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(goal).To(ContainSubstring("QA Engineer"))
		Expect(goal).To(ContainSubstring("6"))
		Expect(goal).To(ContainSubstring("No custom navigation provided."))
	})

	It("falls back to the designer templates for unknown personas", func() {
		goal, err := b.PersonaAnalysis("Metro Times", "news", "Astronaut", 6, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(goal).NotTo(BeEmpty())
	})

	It("inlines custom navigation instructions when given", func() {
		goal, err := b.StressTest("Metro Times", "news", "tap the logo five times")
		Expect(err).NotTo(HaveOccurred())
		Expect(goal).To(ContainSubstring("Follow these custom navigation instructions: tap the logo five times"))
	})

	It("tells the stress stage to misbehave without custom navigation", func() {
		goal, err := b.StressTest("Metro Times", "news", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(goal).To(ContainSubstring("imperfect user behavior"))
	})
})

var _ = Describe("PersonaSlug", func() {

	It("maps the known personas", func() {
		Expect(explore.PersonaSlug("UX Designer")).To(Equal("ux_designer"))
		Expect(explore.PersonaSlug("QA Engineer")).To(Equal("qa_engineer"))
		Expect(explore.PersonaSlug("Product Manager")).To(Equal("product_manager"))
	})

	It("defaults unknown personas to the designer", func() {
		Expect(explore.PersonaSlug("Astronaut")).To(Equal("ux_designer"))
	})
})
