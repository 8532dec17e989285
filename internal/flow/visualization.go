package flow

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/maxkimambo/taskflow/internal/task"
)

// Visualization renders a definition, optionally overlaid with the reports of a run
type Visualization struct {
	def *Definition
	res *Result
}

// NewVisualization creates a visualization of def. res may be nil.
func NewVisualization(def *Definition, res *Result) *Visualization {
	return &Visualization{def: def, res: res}
}

// NodeInfo describes one task for visualization
type NodeInfo struct {
	ID       string     `json:"id"`
	Stage    int        `json:"stage"`
	Output   string     `json:"output"`
	Status   string     `json:"status"`
	Estimate string     `json:"estimate,omitempty"`
	Start    *time.Time `json:"startTime,omitempty"`
	End      *time.Time `json:"endTime,omitempty"`
	Duration string     `json:"duration,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// EdgeInfo is a dependency from the producing task to the consuming task
type EdgeInfo struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GraphInfo contains the full flow structure for visualization
type GraphInfo struct {
	Flow   string     `json:"flow"`
	RunID  string     `json:"runId,omitempty"`
	Status string     `json:"status,omitempty"`
	Params []string   `json:"params"`
	Stages [][]string `json:"stages"`
	Nodes  []NodeInfo `json:"nodes"`
	Edges  []EdgeInfo `json:"edges"`
}

// GenerateGraphInfo builds the node and edge lists in declaration order
func (v *Visualization) GenerateGraphInfo() *GraphInfo {
	info := &GraphInfo{
		Flow:   v.def.name,
		Params: v.def.Params(),
		Stages: v.def.Stages(),
		Nodes:  make([]NodeInfo, 0, len(v.def.tasks)),
		Edges:  []EdgeInfo{},
	}
	if v.res != nil {
		info.RunID = v.res.RunID
		info.Status = v.res.Status.String()
	}

	for i, d := range v.def.tasks {
		node := NodeInfo{
			ID:     d.name,
			Stage:  v.def.stageOf[i],
			Output: d.output,
			Status: task.StatusPending.String(),
		}
		if d.estimate > 0 {
			node.Estimate = d.estimate.String()
		}
		if v.res != nil && i < len(v.res.Reports) {
			rep := v.res.Reports[i]
			node.Status = rep.Status.String()
			if !rep.StartTime.IsZero() {
				start := rep.StartTime
				node.Start = &start
			}
			if !rep.EndTime.IsZero() {
				end := rep.EndTime
				node.End = &end
				node.Duration = rep.Duration.String()
			}
			if rep.Err != nil {
				node.Error = rep.Err.Error()
			}
		}
		info.Nodes = append(info.Nodes, node)

		for _, dep := range v.def.deps[i] {
			info.Edges = append(info.Edges, EdgeInfo{From: v.def.tasks[dep].name, To: d.name})
		}
	}

	return info
}

// JSON returns the graph info as indented JSON
func (v *Visualization) JSON() ([]byte, error) {
	return json.MarshalIndent(v.GenerateGraphInfo(), "", "  ")
}

// DOT returns a Graphviz graph with one cluster per stage
func (v *Visualization) DOT() string {
	info := v.GenerateGraphInfo()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("digraph %q {\n", info.Flow))
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=filled];\n")
	label := info.Flow
	if info.RunID != "" {
		label = fmt.Sprintf("%s (%s)", info.Flow, info.Status)
	}
	sb.WriteString(fmt.Sprintf("  label=%q;\n", label))
	sb.WriteString("  labelloc=\"t\";\n\n")

	for _, p := range info.Params {
		sb.WriteString(fmt.Sprintf("  %q [shape=ellipse, fillcolor=\"white\"];\n", p))
	}

	byStage := make(map[int][]NodeInfo)
	for _, node := range info.Nodes {
		byStage[node.Stage] = append(byStage[node.Stage], node)
	}
	for k := range info.Stages {
		sb.WriteString(fmt.Sprintf("\n  subgraph cluster_stage_%d {\n", k))
		sb.WriteString(fmt.Sprintf("    label=\"Stage %d\";\n", k+1))
		sb.WriteString("    style=dashed;\n")
		for _, node := range byStage[k] {
			nodeLabel := node.ID
			if node.Duration != "" {
				nodeLabel += "\\n" + node.Duration
			} else if node.Estimate != "" {
				nodeLabel += "\\n~" + node.Estimate
			}
			if node.Error != "" {
				msg := node.Error
				if len(msg) > 50 {
					msg = msg[:47] + "..."
				}
				nodeLabel += "\\nError: " + msg
			}
			sb.WriteString(fmt.Sprintf("    %q [label=\"%s\", fillcolor=%q];\n",
				node.ID, nodeLabel, statusColor(node.Status)))
		}
		sb.WriteString("  }\n")
	}

	sb.WriteString("\n")
	for i, d := range v.def.tasks {
		for _, b := range d.bindings {
			if _, produced := v.def.producers[b.slot]; !produced {
				sb.WriteString(fmt.Sprintf("  %q -> %q [style=dotted];\n", b.slot, v.def.tasks[i].name))
			}
		}
	}
	for _, edge := range info.Edges {
		sb.WriteString(fmt.Sprintf("  %q -> %q;\n", edge.From, edge.To))
	}

	sb.WriteString("}\n")
	return sb.String()
}

func statusColor(status string) string {
	switch status {
	case task.StatusRunning.String():
		return "lightblue"
	case task.StatusCompleted.String():
		return "lightgreen"
	case task.StatusFailed.String():
		return "salmon"
	default:
		return "lightgrey"
	}
}
