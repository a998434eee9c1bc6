// Package cli renders exploration events to a terminal.
package cli

import (
	"fmt"
	"strings"
	"sync"
)

// Handler implements streamers.ExplorationHandler for CLI output.
type Handler struct {
	mu sync.Mutex

	// ShowLogs controls whether agent diagnostic output is printed. Header
	// and stage lines always print.
	ShowLogs bool
}

func NewHandler(showLogs bool) *Handler {
	return &Handler{ShowLogs: showLogs}
}

func (h *Handler) RunStarted(explorationID, appName, persona string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Printf("\n%s%s=== Exploring: %s ===%s\n", ColorBold, ColorCyan, appName, ColorReset)
	fmt.Printf("%sExploration ID: %s%s\n", ColorGray, explorationID, ColorReset)
	fmt.Printf("%sPersona: %s%s\n\n", ColorGray, persona, ColorReset)
}

func (h *Handler) Progress(message string, percent int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if percent < 0 {
		fmt.Printf("%s[!] %s%s\n", ColorRed, message, ColorReset)
		return
	}
	fmt.Printf("%s[%3d%%]%s %s\n", ColorCyan, percent, ColorReset, message)
}

func (h *Handler) StageChanged(stageNumber int, status, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch status {
	case "running":
		fmt.Printf("\n%s%s--- Stage %d: %s ---%s\n", ColorBold, ColorCyan, stageNumber, message, ColorReset)
	case "completed":
		fmt.Printf("%s[Stage %d completed] %s%s\n", ColorGreen, stageNumber, message, ColorReset)
	case "failed":
		fmt.Printf("%s[Stage %d FAILED] %s%s\n", ColorRed, stageNumber, message, ColorReset)
	default:
		fmt.Printf("%s[Stage %d %s] %s%s\n", ColorGray, stageNumber, status, message, ColorReset)
	}
}

func (h *Handler) Log(level, message string) {
	if !h.ShowLogs {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	color := ColorGray
	switch level {
	case "error":
		color = ColorRed
	case "warning":
		color = ColorYellow
	case "success":
		color = ColorGreen
	}
	fmt.Printf("%s%s%s\n", color, truncate(message, 200), ColorReset)
}

func (h *Handler) RunCompleted(explorationID, status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch status {
	case "completed":
		fmt.Printf("\n%s%s=== Exploration %s completed ===%s\n", ColorBold, ColorGreen, explorationID, ColorReset)
	case "stopped":
		fmt.Printf("\n%s%s=== Exploration %s stopped ===%s\n", ColorBold, ColorYellow, explorationID, ColorReset)
	default:
		fmt.Printf("\n%s%s=== Exploration %s failed ===%s\n", ColorBold, ColorRed, explorationID, ColorReset)
	}
}

// truncate shortens a string to max length, adding ellipsis if needed
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
