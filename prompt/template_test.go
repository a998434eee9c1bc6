package prompt_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"uxscope/prompt"
)

var _ = Describe("Render", func() {

	It("substitutes variables", func() {
		out, err := prompt.Render("Explore {{app_name}} in the {{category}} category.", prompt.Vars{
			"app_name": "Spotify",
			"category": "music",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Explore Spotify in the music category."))
	})

	It("reports every missing variable", func() {
		_, err := prompt.Render("{{a}} and {{b}} and {{a}}", prompt.Vars{})
		var missing *prompt.MissingPlaceholderError
		Expect(errors.As(err, &missing)).To(BeTrue())
		Expect(missing.Names).To(ContainElements("a", "b"))
	})

	It("does not rescan substituted values", func() {
		out, err := prompt.Render("{{x}}", prompt.Vars{"x": "{{y}}"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("{{y}}"))
	})

	Describe("conditionals", func() {
		It("keeps the block when the variable is non-empty", func() {
			out, err := prompt.Render("start{{#if nav}} use {{nav}}{{/if}} end", prompt.Vars{
				"nav": "deep links",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("start use deep links end"))
		})

		It("drops the block when the variable is empty or absent", func() {
			out, err := prompt.Render("start{{#if nav}} use {{nav}}{{/if}} end", prompt.Vars{
				"nav": "",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("start end"))

			out, err = prompt.Render("start{{#if nav}} hidden {{/if}}end", prompt.Vars{})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("startend"))
		})

		It("resolves nested blocks innermost first", func() {
			tmpl := "{{#if outer}}A{{#if inner}}B{{/if}}C{{/if}}"
			out, err := prompt.Render(tmpl, prompt.Vars{"outer": "1", "inner": "1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("ABC"))

			out, err = prompt.Render(tmpl, prompt.Vars{"outer": "1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("AC"))

			out, err = prompt.Render(tmpl, prompt.Vars{"inner": "1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(""))
		})

		It("rejects unbalanced blocks", func() {
			_, err := prompt.Render("{{#if x}}open", prompt.Vars{"x": "1"})
			Expect(err).To(MatchError(ContainSubstring("unclosed")))

			_, err = prompt.Render("close{{/if}}", prompt.Vars{})
			Expect(err).To(MatchError(ContainSubstring("dangling")))
		})
	})
})

var _ = Describe("Store", func() {

	It("loads every built-in template", func() {
		s := &prompt.Store{}
		for _, name := range []string{
			"stage1_basic_exploration",
			"stage2_persona_analysis",
			"stage3_stress_exploration",
			"persona_ux_designer",
			"persona_qa_engineer",
			"persona_product_manager",
			"final_analysis",
		} {
			text, err := s.Get(name)
			Expect(err).NotTo(HaveOccurred(), "template %s", name)
			Expect(text).NotTo(BeEmpty())
		}
	})

	It("fails on an unknown template", func() {
		s := &prompt.Store{}
		_, err := s.Get("stage9_teleportation")
		Expect(err).To(MatchError(ContainSubstring("not found")))
	})

	It("prefers override files from Dir", func() {
		dir := GinkgoT().TempDir()
		override := "Custom goal for {{app_name}}"
		err := os.WriteFile(filepath.Join(dir, "stage1_basic_exploration.md"), []byte(override), 0644)
		Expect(err).NotTo(HaveOccurred())

		s := &prompt.Store{Dir: dir}
		out, err := s.GetAndRender("stage1_basic_exploration", prompt.Vars{"app_name": "Maps"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Custom goal for Maps"))

		// Names without an override still come from the built-ins.
		text, err := s.Get("final_analysis")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).NotTo(BeEmpty())
	})

	It("names the template in missing-variable errors", func() {
		s := &prompt.Store{}
		_, err := s.GetAndRender("stage1_basic_exploration", prompt.Vars{})
		var missing *prompt.MissingPlaceholderError
		Expect(errors.As(err, &missing)).To(BeTrue())
		Expect(missing.Template).To(Equal("stage1_basic_exploration"))
	})
})
