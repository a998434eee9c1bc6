package store

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps everything in process memory. Used for tests and for
// one-off runs where nothing needs to survive the process.
type MemoryStore struct {
	mu           sync.Mutex
	explorations map[string]*Exploration
	stages       map[string][]*Stage
	results      map[string]*Result
	snapshots    []*Snapshot
	nextSnapID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		explorations: make(map[string]*Exploration),
		stages:       make(map[string][]*Stage),
		results:      make(map[string]*Result),
		nextSnapID:   1,
	}
}

func (s *MemoryStore) CreateExploration(n NewExploration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := generateID()
	now := time.Now()
	s.explorations[id] = &Exploration{
		ID:               id,
		AppName:          n.AppName,
		Category:         n.Category,
		Persona:          n.Persona,
		CustomNavigation: n.CustomNavigation,
		SaveToMemory:     n.SaveToMemory,
		Status:           "running",
		TotalStages:      TotalStages,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	stages := make([]*Stage, 0, TotalStages)
	for i := 1; i <= TotalStages; i++ {
		stages = append(stages, &Stage{
			ExplorationID: id,
			Number:        i,
			Name:          StageNames[i],
			Status:        "pending",
		})
	}
	s.stages[id] = stages

	return id, nil
}

func (s *MemoryStore) GetExploration(id string) (*Exploration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.explorations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *e
	return &out, nil
}

func (s *MemoryStore) UpdateExplorationStatus(id, status string, currentStage *int, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.explorations[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	if currentStage != nil {
		e.CurrentStage = *currentStage
	}
	if errMsg != "" {
		e.ErrorMessage = errMsg
	}
	e.UpdatedAt = time.Now()
	if status == "completed" {
		now := time.Now()
		e.CompletedAt = &now
	}
	return nil
}

func (s *MemoryStore) ListExplorations(f ListFilter) ([]Exploration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Exploration
	for _, e := range s.explorations {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.Persona != "" && e.Persona != f.Persona {
			continue
		}
		item := *e
		if r, ok := s.results[e.ID]; ok {
			ux, cx := r.UXScore, r.ComplexityScore
			item.UXScore = &ux
			item.ComplexityScore = &cx
		}
		out = append(out, item)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkStageRunning(explorationID string, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.findStage(explorationID, number)
	if st == nil {
		return ErrNotFound
	}
	now := time.Now()
	st.Status = "running"
	st.StartedAt = &now
	return nil
}

func (s *MemoryStore) FinishStage(explorationID string, number int, status, content, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.findStage(explorationID, number)
	if st == nil {
		return ErrNotFound
	}
	now := time.Now()
	st.Status = status
	st.Content = content
	st.ErrorMessage = errMsg
	st.CompletedAt = &now
	return nil
}

func (s *MemoryStore) GetStage(explorationID string, number int) (*Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.findStage(explorationID, number)
	if st == nil {
		return nil, ErrNotFound
	}
	out := *st
	return &out, nil
}

func (s *MemoryStore) GetStages(explorationID string) ([]Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stages, ok := s.stages[explorationID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Stage, 0, len(stages))
	for _, st := range stages {
		out = append(out, *st)
	}
	return out, nil
}

func (s *MemoryStore) findStage(explorationID string, number int) *Stage {
	for _, st := range s.stages[explorationID] {
		if st.Number == number {
			return st
		}
	}
	return nil
}

func (s *MemoryStore) SaveResult(r *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *r
	if existing, ok := s.results[r.ExplorationID]; ok {
		saved.CreatedAt = existing.CreatedAt
	} else if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now()
	}
	s.results[r.ExplorationID] = &saved
	return nil
}

func (s *MemoryStore) GetResult(explorationID string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.results[explorationID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

func (s *MemoryStore) LatestResult() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *Result
	for _, r := range s.results {
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	if e, ok := s.explorations[out.ExplorationID]; ok {
		out.AppName = e.AppName
		out.Category = e.Category
		out.Persona = e.Persona
	}
	return &out, nil
}

func (s *MemoryStore) CreateSnapshot(explorationID, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.explorations[explorationID]
	if !ok {
		return 0, ErrNotFound
	}
	r, ok := s.results[explorationID]
	if !ok {
		return 0, ErrNotFound
	}

	if name == "" {
		name = DefaultSnapshotName(e.AppName, e.CreatedAt)
	}
	metrics := r.Metrics
	if metrics == nil {
		metrics = json.RawMessage("{}")
	}

	snap := &Snapshot{
		ID:              s.nextSnapID,
		ExplorationID:   explorationID,
		Name:            name,
		AppName:         e.AppName,
		Category:        e.Category,
		Persona:         e.Persona,
		UXScore:         r.UXScore,
		ComplexityScore: r.ComplexityScore,
		KeyMetrics:      metrics,
		CreatedAt:       time.Now(),
	}
	s.nextSnapID++
	s.snapshots = append(s.snapshots, snap)
	return snap.ID, nil
}

func (s *MemoryStore) ListSnapshots(category, persona string) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Snapshot
	for _, snap := range s.snapshots {
		if category != "" && snap.Category != category {
			continue
		}
		if persona != "" && snap.Persona != persona {
			continue
		}
		out = append(out, *snap)
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
