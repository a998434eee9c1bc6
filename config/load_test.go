package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"uxscope/config"
)

var _ = Describe("Load", func() {

	Describe("parsing", func() {
		It("parses all blocks from a single file", func() {
			hcl := `
model {
  provider    = "openai"
  name        = "gpt-4o"
  api_key     = "sk-test"
  temperature = 0.5
}

exploration {
  max_depth   = 4
  max_steps   = 150
  stress_steps = 80
}

storage {
  backend = "memory"
}

agent {
  kind        = "plugin"
  plugin_path = "/opt/explorer"
}

bridge {
  url   = "ws://localhost:9000/ws"
  token = "secret"
}

prompts {
  dir = "/etc/uxscope/prompts"
}
`
			_, f := writeFixture("config.hcl", hcl)
			cfg, err := config.LoadFile(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Model.Provider).To(Equal(config.ProviderOpenAI))
			Expect(cfg.Model.APIKey).To(Equal("sk-test"))
			Expect(cfg.Model.Temperature).To(Equal(0.5))
			Expect(cfg.Exploration.MaxDepth).To(Equal(4))
			Expect(cfg.Exploration.MaxSteps).To(Equal(150))
			Expect(cfg.Storage.Backend).To(Equal("memory"))
			Expect(cfg.Agent.Kind).To(Equal("plugin"))
			Expect(cfg.Agent.PluginPath).To(Equal("/opt/explorer"))
			Expect(cfg.Bridge.URL).To(Equal("ws://localhost:9000/ws"))
			Expect(cfg.Prompts.Dir).To(Equal("/etc/uxscope/prompts"))
		})

		It("merges directory files with later files winning per block", func() {
			dir := writeFixtures(map[string]string{
				"a_model.hcl": `
model {
  provider = "openai"
  api_key  = "first"
}
`,
				"b_model.hcl": `
model {
  provider = "gemini"
  api_key  = "second"
}
`,
				"c_storage.hcl": `
storage {
  backend = "memory"
}
`,
			})
			cfg, err := config.LoadDir(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Model.Provider).To(Equal(config.ProviderGemini))
			Expect(cfg.Model.APIKey).To(Equal("second"))
			Expect(cfg.Storage.Backend).To(Equal("memory"))
		})

		It("fails on a directory with no hcl files", func() {
			dir := GinkgoT().TempDir()
			_, err := config.LoadDir(dir)
			Expect(err).To(HaveOccurred())
		})

		It("fails on malformed hcl", func() {
			_, f := writeFixture("bad.hcl", `model { provider = `)
			_, err := config.LoadFile(f)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Defaults", func() {
		It("fills every block when none are set", func() {
			cfg := config.Default()
			Expect(cfg.Model.Provider).To(Equal(config.ProviderAnthropic))
			Expect(cfg.Model.Name).To(Equal("claude-sonnet-4-20250514"))
			Expect(cfg.Model.Temperature).To(Equal(0.2))
			Expect(cfg.Model.MaxTokens).To(Equal(8192))
			Expect(cfg.Exploration.MaxDepth).To(Equal(6))
			Expect(cfg.Exploration.StepsPerDepth).To(Equal(30))
			Expect(cfg.Exploration.MaxSteps).To(Equal(200))
			Expect(cfg.Exploration.StressSteps).To(Equal(100))
			Expect(cfg.Exploration.CancelPollSecs).To(Equal(2))
			Expect(cfg.Exploration.LogFlushSecs).To(Equal(3))
			Expect(cfg.Storage.Backend).To(Equal("sqlite"))
			Expect(cfg.Storage.Path).To(Equal(".uxscope/uxscope.db"))
			Expect(cfg.Agent.Kind).To(Equal("simulated"))
			Expect(cfg.Bridge.Enabled()).To(BeFalse())
		})

		It("picks a model name per provider", func() {
			m := &config.ModelConfig{Provider: config.ProviderOpenAI}
			m.Defaults()
			Expect(m.Name).To(Equal("gpt-4o"))

			m = &config.ModelConfig{Provider: config.ProviderGemini}
			m.Defaults()
			Expect(m.Name).To(Equal("gemini-2.0-flash"))
		})
	})

	Describe("Validate", func() {
		It("accepts a minimal valid config", func() {
			_, f := writeFixture("config.hcl", minimalModelHCL())
			cfg, err := config.LoadAndValidate(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Model.ResolveAPIKey()).To(Equal("test-key-123"))
		})

		It("rejects an unsupported provider", func() {
			_, f := writeFixture("config.hcl", `
model {
  provider = "llama"
  api_key  = "k"
}
`)
			_, err := config.LoadAndValidate(f)
			Expect(err).To(MatchError(ContainSubstring("unsupported provider")))
		})

		It("rejects a missing api key", func() {
			GinkgoT().Setenv("ANTHROPIC_API_KEY", "")
			_, f := writeFixture("config.hcl", `
model {
  provider = "anthropic"
}
`)
			_, err := config.LoadAndValidate(f)
			Expect(err).To(MatchError(ContainSubstring("no api key")))
		})

		It("falls back to the provider env var for the api key", func() {
			GinkgoT().Setenv("OPENAI_API_KEY", "env-key")
			m := &config.ModelConfig{Provider: config.ProviderOpenAI}
			Expect(m.ResolveAPIKey()).To(Equal("env-key"))
		})

		It("rejects max_depth out of range", func() {
			_, f := writeFixture("config.hcl", minimalModelHCL()+`
exploration {
  max_depth = 50
}
`)
			_, err := config.LoadAndValidate(f)
			Expect(err).To(MatchError(ContainSubstring("max_depth")))
		})

		It("rejects a negative stage timeout", func() {
			_, f := writeFixture("config.hcl", minimalModelHCL()+`
exploration {
  stage_timeout_minutes = -5
}
`)
			_, err := config.LoadAndValidate(f)
			Expect(err).To(MatchError(ContainSubstring("stage_timeout_minutes")))
		})

		It("rejects postgres storage without a dsn", func() {
			_, f := writeFixture("config.hcl", minimalModelHCL()+`
storage {
  backend = "postgres"
}
`)
			_, err := config.LoadAndValidate(f)
			Expect(err).To(MatchError(ContainSubstring("dsn")))
		})

		It("rejects a plugin agent with neither path nor source", func() {
			_, f := writeFixture("config.hcl", minimalModelHCL()+`
agent {
  kind = "plugin"
}
`)
			_, err := config.LoadAndValidate(f)
			Expect(err).To(MatchError(ContainSubstring("plugin_path or plugin_source")))
		})

		It("requires a version alongside plugin_source", func() {
			_, f := writeFixture("config.hcl", minimalModelHCL()+`
agent {
  kind          = "plugin"
  plugin_source = "github.com/acme/uxscope-appium"
}
`)
			_, err := config.LoadAndValidate(f)
			Expect(err).To(MatchError(ContainSubstring("plugin_version")))
		})
	})
})
