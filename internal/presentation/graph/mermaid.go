package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/screener/pkg/domain"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	VisitedStages []domain.StageID
	CurrentStage  domain.StageID
}

// OverlayFor builds the overlay of a session's progress.
func OverlayFor(sess *domain.Session) *GraphOverlay {
	if sess == nil {
		return nil
	}
	return &GraphOverlay{VisitedStages: sess.History, CurrentStage: sess.Current}
}

// GenerateMermaid draws the interview stages as a Mermaid flowchart. Greeting
// is a circle, closing a double circle, and stages that collect an answer are
// parallelograms. Branch edges carry their salary condition.
func GenerateMermaid(stages []domain.Stage, overlay *GraphOverlay) string {
	incoming := make(map[domain.StageID]bool)
	for _, s := range stages {
		for _, to := range s.Transition.Targets() {
			incoming[to] = true
		}
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, stage := range stages {
		id := string(stage.ID)
		opener, closer := "[", "]"
		switch {
		case !incoming[stage.ID]:
			opener, closer = "((", "))"
		case stage.Terminal():
			opener, closer = "(((", ")))"
		case stage.Expects != domain.ShapeNone && stage.Expects != "":
			opener, closer = "[/", "/]"
		}

		label := id
		if stage.Function != "" {
			label = fmt.Sprintf("%s <br/> %s()", id, stage.Function)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

		tr := stage.Transition
		switch {
		case tr.Branch != nil:
			limit := strconv.FormatFloat(tr.Branch.Threshold, 'f', -1, 64)
			fmt.Fprintf(&sb, "    %s -- \"salary <= %s\" --> %s\n", id, limit, tr.Branch.AtOrBelow)
			fmt.Fprintf(&sb, "    %s -- \"salary > %s\" --> %s\n", id, limit, tr.Branch.Above)
		case tr.Default != "":
			fmt.Fprintf(&sb, "    %s --> %s\n", id, tr.Default)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Dark text keeps labels readable on the light fills in either theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[domain.StageID]bool)
		for _, id := range overlay.VisitedStages {
			if id == "" || seen[id] || id == overlay.CurrentStage {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", id)
		}
		if overlay.CurrentStage != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", overlay.CurrentStage)
		}
	}

	return sb.String()
}
