// Package store persists explorations, their stages, final results, and
// comparison snapshots. Backends are interchangeable behind ExplorationStore.
package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("store: not found")

// TotalStages is the number of stages every exploration is created with.
const TotalStages = 4

// StageNames maps stage numbers to their display names, in pipeline order.
var StageNames = map[int]string{
	1: "Basic Exploration",
	2: "Persona Analysis",
	3: "Custom Navigation / Stress Test",
	4: "Final Analysis",
}

// Exploration is one exploration session. UXScore and ComplexityScore are
// joined in from the result row on list queries and are nil until a result
// exists.
type Exploration struct {
	ID               string     `json:"id"`
	AppName          string     `json:"appName"`
	Category         string     `json:"category"`
	Persona          string     `json:"persona"`
	CustomNavigation string     `json:"customNavigation,omitempty"`
	SaveToMemory     bool       `json:"saveToMemory"`
	Status           string     `json:"status"`
	ErrorMessage     string     `json:"errorMessage,omitempty"`
	CurrentStage     int        `json:"currentStage"`
	TotalStages      int        `json:"totalStages"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	UXScore          *float64   `json:"uxScore,omitempty"`
	ComplexityScore  *float64   `json:"complexityScore,omitempty"`
}

// NewExploration carries the inputs for creating an exploration.
type NewExploration struct {
	AppName          string
	Category         string
	Persona          string
	CustomNavigation string
	SaveToMemory     bool
}

// Stage is one stage record belonging to an exploration.
type Stage struct {
	ExplorationID string     `json:"explorationId"`
	Number        int        `json:"stageNumber"`
	Name          string     `json:"stageName"`
	Status        string     `json:"status"`
	Content       string     `json:"content,omitempty"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// Result is the final synthesized analysis for an exploration. The slice and
// object fields hold raw JSON as produced by the synthesis step. AppName,
// Category, and Persona are joined in on LatestResult only.
type Result struct {
	ExplorationID   string          `json:"explorationId"`
	Summary         string          `json:"summary"`
	Positive        json.RawMessage `json:"positive,omitempty"`
	Issues          json.RawMessage `json:"issues,omitempty"`
	Recommendations json.RawMessage `json:"recommendations,omitempty"`
	Metrics         json.RawMessage `json:"metrics,omitempty"`
	UXScore         float64         `json:"uxScore"`
	ComplexityScore float64         `json:"complexityScore"`
	FullJSON        json.RawMessage `json:"fullJson,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	AppName         string          `json:"appName,omitempty"`
	Category        string          `json:"category,omitempty"`
	Persona         string          `json:"persona,omitempty"`
}

// Snapshot is a point-in-time copy of an exploration's scores kept for
// cross-run comparison.
type Snapshot struct {
	ID              int64           `json:"id"`
	ExplorationID   string          `json:"explorationId"`
	Name            string          `json:"name"`
	AppName         string          `json:"appName,omitempty"`
	Category        string          `json:"category"`
	Persona         string          `json:"persona"`
	UXScore         float64         `json:"uxScore"`
	ComplexityScore float64         `json:"complexityScore"`
	KeyMetrics      json.RawMessage `json:"keyMetrics,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ListFilter narrows ListExplorations. Zero values mean no filter; a zero
// Limit falls back to 50.
type ListFilter struct {
	Category string
	Persona  string
	Limit    int
}

// ExplorationStore is the persistence contract for the exploration pipeline.
// CreateExploration also seeds one pending stage row per stage; FinishStage
// accepts completed or failed; SaveResult upserts on exploration ID.
// UpdateExplorationStatus records errMsg on the exploration when non-empty,
// so a terminal failure keeps its reason.
type ExplorationStore interface {
	CreateExploration(n NewExploration) (id string, err error)
	GetExploration(id string) (*Exploration, error)
	UpdateExplorationStatus(id, status string, currentStage *int, errMsg string) error
	ListExplorations(f ListFilter) ([]Exploration, error)

	MarkStageRunning(explorationID string, number int) error
	FinishStage(explorationID string, number int, status, content, errMsg string) error
	GetStage(explorationID string, number int) (*Stage, error)
	GetStages(explorationID string) ([]Stage, error)

	SaveResult(r *Result) error
	GetResult(explorationID string) (*Result, error)
	LatestResult() (*Result, error)

	CreateSnapshot(explorationID, name string) (int64, error)
	ListSnapshots(category, persona string) ([]Snapshot, error)

	Close() error
}

// generateID returns a short random identifier, friendly enough to type on a
// command line.
func generateID() string {
	return uuid.NewString()[:8]
}

// DefaultSnapshotName builds the snapshot name used when none is given.
func DefaultSnapshotName(appName string, createdAt time.Time) string {
	return appName + " - " + createdAt.Format("2006-01-02")
}
