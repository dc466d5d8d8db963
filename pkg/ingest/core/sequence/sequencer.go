// Package sequence wires the stages of a WorkflowPlan into one fork/join DAG.
//
// The result is a description of control-flow edges between named nodes. It
// carries no markup; the XML emitter turns each node into a start, fork,
// action, join or end element. Node names are part of the output contract:
// diagram generation and artifact diffing depend on them.
//
// Each job contributes two nodes, an entry and a work node:
//
//	top level: prep_<db>_<table> -> ingest_<db>_<table>
//	nested:    job_<i>           -> subwf_<i>   (sub-workflow action)
//
// A stage of several light or medium jobs forks concurrently. A stage holding
// a heavy job is staggered: the heavy job's entry runs first and opens the
// fork, which then starts the heavy work node next to its companion. A single
// job stage in the middle of the plan hands over straight to the next stage.
package sequence

import (
	"fmt"

	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

const moduleName = "sequence"

const (
	// StartNode is the name of the workflow's start element.
	StartNode = "start"
	// DefaultCompletion is the step every plan finishes into.
	DefaultCompletion = "completion"
)

// BranchStyle describes how a stage fans out.
type BranchStyle string

const (
	StyleSingle     BranchStyle = "single"
	StyleConcurrent BranchStyle = "concurrent"
	StyleStaggered  BranchStyle = "staggered"
)

// Options controls one Wire call.
type Options struct {
	// Nested switches to job_<i> naming and sub-workflow branches.
	Nested bool
	// Sequence is the first fork/join number to use. Callers that generate
	// several workflows thread Wiring.NextSequence into the next call.
	Sequence int
	// Completion overrides DefaultCompletion.
	Completion string
	// Filenames maps job identity to the generated sub-workflow file (nested only).
	Filenames map[string]string
}

// Branch is one job's path through a stage.
type Branch struct {
	JobID string
	Entry string
	Work  string
	// SubWorkflow is the referenced file in nested mode; empty on a lookup miss.
	SubWorkflow string
	// Gate marks the heavy branch that opens a staggered fork.
	Gate bool
}

// Stage is the wiring of one pipeline.
type Stage struct {
	Index    int
	Style    BranchStyle
	Entry    string
	Fork     string
	Join     string
	Next     string
	Branches []Branch
}

// Transition is one control edge.
type Transition struct {
	From string
	To   string
}

// Wiring is the complete control-flow description of one workflow.
type Wiring struct {
	Name         string
	Nested       bool
	Start        string
	Completion   string
	Stages       []Stage
	NextSequence int
	// LookupMisses lists job identities with no generated sub-workflow file.
	LookupMisses []string
}

// Wire computes the fork/join wiring of plan.
func Wire(plan model.WorkflowPlan, opts Options) (*Wiring, error) {
	if len(plan.Pipelines) == 0 {
		return nil, exception.NewConfigurationErrorf(moduleName, "workflow '%s' has no pipelines", plan.Name)
	}
	completion := opts.Completion
	if completion == "" {
		completion = DefaultCompletion
	}

	w := &Wiring{
		Name:       plan.Name,
		Nested:     opts.Nested,
		Completion: completion,
		Stages:     make([]Stage, len(plan.Pipelines)),
	}

	last := len(plan.Pipelines) - 1
	seq := opts.Sequence
	jobIndex := 0
	for i, pl := range plan.Pipelines {
		if pl.Size() == 0 {
			return nil, exception.NewConfigurationErrorf(moduleName, "workflow '%s' stage %d is empty", plan.Name, i)
		}
		st := Stage{Index: i, Style: styleOf(pl)}
		for _, job := range branchOrder(pl) {
			st.Branches = append(st.Branches, w.branch(job, jobIndex, opts))
			jobIndex++
		}
		if st.Style == StyleStaggered {
			st.Branches[0].Gate = true
		}

		collapsed := st.Style == StyleSingle && i > 0 && i < last
		if !collapsed {
			st.Join = fmt.Sprintf("join_%d", seq)
			if st.Style != StyleSingle {
				st.Fork = fmt.Sprintf("fork_%d", seq)
			}
			seq++
		}

		switch st.Style {
		case StyleConcurrent:
			st.Entry = st.Fork
		default:
			st.Entry = st.Branches[0].Entry
		}
		w.Stages[i] = st
	}

	for i := range w.Stages {
		if i == last {
			w.Stages[i].Next = completion
		} else {
			w.Stages[i].Next = w.Stages[i+1].Entry
		}
	}
	w.Start = w.Stages[0].Entry
	w.NextSequence = seq

	logger.Debugf("sequence: workflow '%s' wired: %d stages, start=%s, next sequence %d",
		plan.Name, len(w.Stages), w.Start, w.NextSequence)
	return w, nil
}

func styleOf(pl model.Pipeline) BranchStyle {
	switch {
	case pl.Size() == 1:
		return StyleSingle
	case pl.HasHeavy():
		return StyleStaggered
	default:
		return StyleConcurrent
	}
}

// branchOrder lists the gating heavy job first, the rest in pipeline order.
func branchOrder(pl model.Pipeline) []model.Job {
	gate, ok := pl.FirstHeavy()
	if !ok || pl.Size() == 1 {
		return pl.Jobs
	}
	ordered := make([]model.Job, 0, pl.Size())
	ordered = append(ordered, pl.Jobs[gate])
	ordered = append(ordered, pl.Jobs[:gate]...)
	return append(ordered, pl.Jobs[gate+1:]...)
}

func (w *Wiring) branch(job model.Job, index int, opts Options) Branch {
	b := Branch{JobID: job.ID()}
	if !opts.Nested {
		b.Entry = "prep_" + job.NodeName()
		b.Work = "ingest_" + job.NodeName()
		return b
	}
	b.Entry = fmt.Sprintf("job_%d", index)
	b.Work = fmt.Sprintf("subwf_%d", index)
	file, ok := opts.Filenames[job.ID()]
	if !ok {
		logger.Warnf("sequence: no generated sub-workflow for job '%s' in workflow '%s'; leaving the reference empty", job.ID(), w.Name)
		w.LookupMisses = append(w.LookupMisses, job.ID())
	}
	b.SubWorkflow = file
	return b
}

// Transitions flattens the wiring into edges, in stage order.
func (w *Wiring) Transitions() []Transition {
	edges := []Transition{{From: StartNode, To: w.Start}}
	add := func(from, to string) {
		edges = append(edges, Transition{From: from, To: to})
	}

	for _, st := range w.Stages {
		exit := st.Join
		if exit == "" {
			exit = st.Next
		}
		switch st.Style {
		case StyleSingle:
			b := st.Branches[0]
			add(b.Entry, b.Work)
			add(b.Work, exit)
		case StyleConcurrent:
			for _, b := range st.Branches {
				add(st.Fork, b.Entry)
			}
			for _, b := range st.Branches {
				add(b.Entry, b.Work)
				add(b.Work, exit)
			}
		case StyleStaggered:
			gate := st.Branches[0]
			add(gate.Entry, st.Fork)
			add(st.Fork, gate.Work)
			for _, b := range st.Branches[1:] {
				add(st.Fork, b.Entry)
			}
			add(gate.Work, exit)
			for _, b := range st.Branches[1:] {
				add(b.Entry, b.Work)
				add(b.Work, exit)
			}
		}
		if st.Join != "" {
			add(st.Join, st.Next)
		}
	}
	return edges
}

// Validate checks the single-entry and single-exit invariants: one start
// edge, and the completion node reachable from every stage entry.
func (w *Wiring) Validate() error {
	edges := w.Transitions()
	adjacency := make(map[string][]string)
	starts := 0
	for _, e := range edges {
		if e.From == StartNode {
			starts++
		}
		adjacency[e.From] = append(adjacency[e.From], e.To)
	}
	if starts != 1 {
		return exception.NewConfigurationErrorf(moduleName, "workflow '%s' has %d start edges", w.Name, starts)
	}

	fromStart := reachable(adjacency, StartNode)
	for _, st := range w.Stages {
		if !fromStart[st.Entry] {
			return exception.NewConfigurationErrorf(moduleName, "workflow '%s' stage %d (%s) is unreachable from start", w.Name, st.Index, st.Entry)
		}
		if !reachable(adjacency, st.Entry)[w.Completion] {
			return exception.NewConfigurationErrorf(moduleName, "workflow '%s' stage %d (%s) never reaches '%s'", w.Name, st.Index, st.Entry, w.Completion)
		}
	}
	return nil
}

func reachable(adjacency map[string][]string, from string) map[string]bool {
	seen := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[node] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}
