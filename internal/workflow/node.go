package workflow

import "fmt"

// Node identifies one step of the workflow state machine.
type Node string

const (
	NodeStart         Node = "start"
	NodeRouting       Node = "routing"
	NodeAskHuman      Node = "ask_human"
	NodeExtractEntity Node = "extract_company_name"
	NodeFetchDocument Node = "fetch_document"
	NodeAnalyze       Node = "analyze_report"
	NodeEnd           Node = "end"
)

// Classifier labels the router accepts. The routing node's outcome is the
// label itself, so labels double as transition outcomes.
const (
	labelAskHuman = string(NodeAskHuman)
	labelExtract  = string(NodeExtractEntity)
	labelAnalyze  = string(NodeAnalyze)
)

// outcomeDone is the outcome of every non-branching node.
const outcomeDone = "done"

type transition struct {
	From    Node
	Outcome string
	To      Node
}

// transitions is the full edge set of the workflow graph. Routing branches
// on the classifier label; everything else runs straight through.
var transitions = []transition{
	{NodeStart, outcomeDone, NodeRouting},
	{NodeRouting, labelAskHuman, NodeAskHuman},
	{NodeRouting, labelExtract, NodeExtractEntity},
	{NodeRouting, labelAnalyze, NodeAnalyze},
	{NodeExtractEntity, outcomeDone, NodeFetchDocument},
	{NodeFetchDocument, outcomeDone, NodeEnd},
	{NodeAnalyze, outcomeDone, NodeEnd},
	{NodeAskHuman, outcomeDone, NodeEnd},
}

// next resolves the transition for (from, outcome). A missing edge is a
// programming error surfaced as a failed invocation, never a panic.
func next(from Node, outcome string) (Node, error) {
	for _, t := range transitions {
		if t.From == from && t.Outcome == outcome {
			return t.To, nil
		}
	}
	return "", fmt.Errorf("no transition from %s on outcome %q", from, outcome)
}
