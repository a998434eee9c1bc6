package store_test

import (
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"uxscope/store"
)

var _ = Describe("ExplorationStore", func() {
	runStoreTests := func(newStore func() (store.ExplorationStore, func())) {
		var (
			st      store.ExplorationStore
			cleanup func()
		)

		BeforeEach(func() {
			st, cleanup = newStore()
		})

		AfterEach(func() {
			cleanup()
		})

		create := func() string {
			id, err := st.CreateExploration(store.NewExploration{
				AppName:  "Metro Times",
				Category: "news",
				Persona:  "UX Designer",
			})
			Expect(err).NotTo(HaveOccurred())
			return id
		}

		saveResult := func(id string, ux, complexity float64) {
			Expect(st.SaveResult(&store.Result{
				ExplorationID:   id,
				Summary:         "fine",
				Positive:        json.RawMessage(`["fast startup"]`),
				Issues:          json.RawMessage(`[]`),
				Recommendations: json.RawMessage(`[]`),
				Metrics:         json.RawMessage(`{"navigation_metrics":{"avg_depth":2}}`),
				UXScore:         ux,
				ComplexityScore: complexity,
				FullJSON:        json.RawMessage(`{"summary":"fine"}`),
			})).To(Succeed())
		}

		Describe("explorations", func() {
			It("creates an exploration with four pending stages", func() {
				id := create()
				Expect(id).To(HaveLen(8))

				e, err := st.GetExploration(id)
				Expect(err).NotTo(HaveOccurred())
				Expect(e.AppName).To(Equal("Metro Times"))
				Expect(e.Status).To(Equal("running"))
				Expect(e.TotalStages).To(Equal(store.TotalStages))

				stages, err := st.GetStages(id)
				Expect(err).NotTo(HaveOccurred())
				Expect(stages).To(HaveLen(4))
				for i, s := range stages {
					Expect(s.Number).To(Equal(i + 1))
					Expect(s.Name).To(Equal(store.StageNames[i+1]))
					Expect(s.Status).To(Equal("pending"))
				}
			})

			It("returns ErrNotFound for unknown IDs", func() {
				_, err := st.GetExploration("nope1234")
				Expect(err).To(MatchError(store.ErrNotFound))
			})

			It("updates status and current stage", func() {
				id := create()
				stage := 2
				Expect(st.UpdateExplorationStatus(id, "running", &stage, "")).To(Succeed())

				e, err := st.GetExploration(id)
				Expect(err).NotTo(HaveOccurred())
				Expect(e.CurrentStage).To(Equal(2))
				Expect(e.CompletedAt).To(BeNil())
			})

			It("stamps completed_at when completing", func() {
				id := create()
				Expect(st.UpdateExplorationStatus(id, "completed", nil, "")).To(Succeed())

				e, err := st.GetExploration(id)
				Expect(err).NotTo(HaveOccurred())
				Expect(e.Status).To(Equal("completed"))
				Expect(e.CompletedAt).NotTo(BeNil())
			})

			It("records the failure reason on the exploration", func() {
				id := create()
				Expect(st.UpdateExplorationStatus(id, "failed", nil, "agent execution failed: device offline")).To(Succeed())

				e, err := st.GetExploration(id)
				Expect(err).NotTo(HaveOccurred())
				Expect(e.Status).To(Equal("failed"))
				Expect(e.ErrorMessage).To(Equal("agent execution failed: device offline"))
			})

			It("keeps an earlier failure reason across later status writes", func() {
				id := create()
				Expect(st.UpdateExplorationStatus(id, "failed", nil, "first reason")).To(Succeed())
				Expect(st.UpdateExplorationStatus(id, "failed", nil, "")).To(Succeed())

				e, err := st.GetExploration(id)
				Expect(err).NotTo(HaveOccurred())
				Expect(e.ErrorMessage).To(Equal("first reason"))
			})

			It("lists newest first with filters and result scores joined in", func() {
				first := create()

				secondID, err := st.CreateExploration(store.NewExploration{
					AppName:  "Ledger",
					Category: "finance",
					Persona:  "QA Engineer",
				})
				Expect(err).NotTo(HaveOccurred())
				saveResult(secondID, 7.5, 3)

				all, err := st.ListExplorations(store.ListFilter{})
				Expect(err).NotTo(HaveOccurred())
				Expect(all).To(HaveLen(2))

				byCategory, err := st.ListExplorations(store.ListFilter{Category: "finance"})
				Expect(err).NotTo(HaveOccurred())
				Expect(byCategory).To(HaveLen(1))
				Expect(byCategory[0].ID).To(Equal(secondID))
				Expect(byCategory[0].UXScore).NotTo(BeNil())
				Expect(*byCategory[0].UXScore).To(Equal(7.5))

				byPersona, err := st.ListExplorations(store.ListFilter{Persona: "UX Designer"})
				Expect(err).NotTo(HaveOccurred())
				Expect(byPersona).To(HaveLen(1))
				Expect(byPersona[0].ID).To(Equal(first))
				Expect(byPersona[0].UXScore).To(BeNil())

				limited, err := st.ListExplorations(store.ListFilter{Limit: 1})
				Expect(err).NotTo(HaveOccurred())
				Expect(limited).To(HaveLen(1))
			})
		})

		Describe("stages", func() {
			It("marks a stage running with a start time", func() {
				id := create()
				Expect(st.MarkStageRunning(id, 1)).To(Succeed())

				s, err := st.GetStage(id, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Status).To(Equal("running"))
				Expect(s.StartedAt).NotTo(BeNil())
			})

			It("finishes a stage with content", func() {
				id := create()
				Expect(st.MarkStageRunning(id, 1)).To(Succeed())
				Expect(st.FinishStage(id, 1, "completed", "# Exploration Report", "")).To(Succeed())

				s, err := st.GetStage(id, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Status).To(Equal("completed"))
				Expect(s.Content).To(Equal("# Exploration Report"))
				Expect(s.CompletedAt).NotTo(BeNil())
			})

			It("records a stage failure with its error message", func() {
				id := create()
				Expect(st.FinishStage(id, 3, "failed", "", "Agent execution failed")).To(Succeed())

				s, err := st.GetStage(id, 3)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Status).To(Equal("failed"))
				Expect(s.ErrorMessage).To(Equal("Agent execution failed"))
			})

			It("returns ErrNotFound for a stage of an unknown exploration", func() {
				_, err := st.GetStage("nope1234", 1)
				Expect(err).To(MatchError(store.ErrNotFound))
			})
		})

		Describe("results", func() {
			It("saves and reads a result", func() {
				id := create()
				saveResult(id, 8, 4)

				r, err := st.GetResult(id)
				Expect(err).NotTo(HaveOccurred())
				Expect(r.Summary).To(Equal("fine"))
				Expect(r.UXScore).To(Equal(float64(8)))
				Expect(string(r.Positive)).To(MatchJSON(`["fast startup"]`))
			})

			It("upserts on repeated saves", func() {
				id := create()
				saveResult(id, 5, 5)
				saveResult(id, 9, 2)

				r, err := st.GetResult(id)
				Expect(err).NotTo(HaveOccurred())
				Expect(r.UXScore).To(Equal(float64(9)))
				Expect(r.ComplexityScore).To(Equal(float64(2)))
			})

			It("returns the most recent result with app details joined in", func() {
				first := create()
				saveResult(first, 6, 6)

				secondID, err := st.CreateExploration(store.NewExploration{
					AppName:  "Ledger",
					Category: "finance",
					Persona:  "QA Engineer",
				})
				Expect(err).NotTo(HaveOccurred())
				saveResult(secondID, 7, 3)

				latest, err := st.LatestResult()
				Expect(err).NotTo(HaveOccurred())
				Expect(latest.ExplorationID).To(Equal(secondID))
				Expect(latest.AppName).To(Equal("Ledger"))
				Expect(latest.Persona).To(Equal("QA Engineer"))
			})

			It("returns ErrNotFound when no results exist", func() {
				_, err := st.LatestResult()
				Expect(err).To(MatchError(store.ErrNotFound))

				_, err = st.GetResult("nope1234")
				Expect(err).To(MatchError(store.ErrNotFound))
			})
		})

		Describe("snapshots", func() {
			It("snapshots an exploration's scores", func() {
				id := create()
				saveResult(id, 8, 4)

				snapID, err := st.CreateSnapshot(id, "Before redesign")
				Expect(err).NotTo(HaveOccurred())
				Expect(snapID).To(BeNumerically(">", 0))

				snaps, err := st.ListSnapshots("", "")
				Expect(err).NotTo(HaveOccurred())
				Expect(snaps).To(HaveLen(1))
				Expect(snaps[0].Name).To(Equal("Before redesign"))
				Expect(snaps[0].UXScore).To(Equal(float64(8)))
				Expect(snaps[0].Category).To(Equal("news"))
			})

			It("defaults the snapshot name to app and date", func() {
				id := create()
				saveResult(id, 8, 4)

				_, err := st.CreateSnapshot(id, "")
				Expect(err).NotTo(HaveOccurred())

				e, err := st.GetExploration(id)
				Expect(err).NotTo(HaveOccurred())

				snaps, err := st.ListSnapshots("news", "UX Designer")
				Expect(err).NotTo(HaveOccurred())
				Expect(snaps).To(HaveLen(1))
				Expect(snaps[0].Name).To(Equal(store.DefaultSnapshotName("Metro Times", e.CreatedAt)))
			})

			It("filters snapshots by category and persona", func() {
				id := create()
				saveResult(id, 8, 4)
				_, err := st.CreateSnapshot(id, "snap")
				Expect(err).NotTo(HaveOccurred())

				snaps, err := st.ListSnapshots("finance", "")
				Expect(err).NotTo(HaveOccurred())
				Expect(snaps).To(BeEmpty())
			})

			It("refuses to snapshot an exploration without a result", func() {
				id := create()
				_, err := st.CreateSnapshot(id, "too early")
				Expect(err).To(HaveOccurred())
			})
		})
	}

	Context("Memory backend", func() {
		runStoreTests(func() (store.ExplorationStore, func()) {
			return store.NewMemoryStore(), func() {}
		})
	})

	Context("SQLite backend", func() {
		runStoreTests(func() (store.ExplorationStore, func()) {
			dir, err := os.MkdirTemp("", "store-test-*")
			Expect(err).NotTo(HaveOccurred())

			st, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"))
			Expect(err).NotTo(HaveOccurred())

			return st, func() {
				st.Close()
				os.RemoveAll(dir)
			}
		})
	})
})
