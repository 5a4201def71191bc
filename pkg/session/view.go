package session

import "github.com/dukex/composer/pkg/models"

// Control labels.
const (
	SaveLabel       = "Save Workflow"
	SavingLabel     = "Saving..."
	GenerateLabel   = "Generate with AI"
	GeneratingLabel = "Generating..."
)

// ControlState is the label and enabled state of an action control.
type ControlState struct {
	Label    string
	Disabled bool
}

// NodeItem is one row of the rendered node list.
type NodeItem struct {
	Index    int
	ID       string
	Type     string
	Name     string
	Selected bool
}

// View is everything a front end needs to draw the editor.
type View struct {
	Name     string
	Nodes    []NodeItem
	Selected int
	RemoteID string
	Preview  string
	Save     ControlState
	Generate ControlState
}

// SelectedNode returns the selected row, if any.
func (v View) SelectedNode() (NodeItem, bool) {
	if v.Selected < 0 || v.Selected >= len(v.Nodes) {
		return NodeItem{}, false
	}

	return v.Nodes[v.Selected], true
}

func nodeItems(nodeList []models.Node, selected int) []NodeItem {
	items := make([]NodeItem, len(nodeList))
	for i, node := range nodeList {
		items[i] = NodeItem{
			Index:    i,
			ID:       node.ID,
			Type:     node.Type,
			Name:     node.Name,
			Selected: i == selected,
		}
	}

	return items
}
