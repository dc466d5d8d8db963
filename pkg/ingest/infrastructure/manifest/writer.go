// Package manifest renders compile results as YAML documents and stores
// them through a storage connection, one object per generated workflow plus
// one for the predicates of the run.
package manifest

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"gopkg.in/yaml.v3"

	storageAdapter "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/storage"
	usecase "github.com/tigerroll/surfin-flow/pkg/ingest/core/application/usecase"
	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	sequence "github.com/tigerroll/surfin-flow/pkg/ingest/core/sequence"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

const contentType = "application/yaml"

// PredicatesObject is the object name of the predicates document.
const PredicatesObject = "predicates.yaml"

// WorkflowManifest is the YAML form of one generated workflow.
type WorkflowManifest struct {
	RunID        string           `yaml:"run_id"`
	Workflow     string           `yaml:"workflow"`
	Nested       bool             `yaml:"nested"`
	Start        string           `yaml:"start"`
	Completion   string           `yaml:"completion"`
	NextSequence int              `yaml:"next_sequence"`
	Stages       []StageManifest  `yaml:"stages"`
	Transitions  []TransitionLine `yaml:"transitions"`
	LookupMisses []string         `yaml:"lookup_misses,omitempty"`
}

// StageManifest is the YAML form of one stage.
type StageManifest struct {
	Index    int              `yaml:"index"`
	Style    string           `yaml:"style"`
	Entry    string           `yaml:"entry"`
	Fork     string           `yaml:"fork,omitempty"`
	Join     string           `yaml:"join,omitempty"`
	Next     string           `yaml:"next"`
	Branches []BranchManifest `yaml:"branches"`
}

// BranchManifest is the YAML form of one branch.
type BranchManifest struct {
	Job         string `yaml:"job"`
	Entry       string `yaml:"entry"`
	Work        string `yaml:"work"`
	SubWorkflow string `yaml:"sub_workflow,omitempty"`
	Gate        bool   `yaml:"gate,omitempty"`
}

// TransitionLine renders an edge as "from -> to".
type TransitionLine string

// PredicatesManifest is the YAML form of a run's predicates.
type PredicatesManifest struct {
	RunID      string              `yaml:"run_id"`
	Predicates []PredicateManifest `yaml:"predicates"`
	Errors     []string            `yaml:"errors,omitempty"`
}

// PredicateManifest is the YAML form of one predicate.
type PredicateManifest struct {
	Job        string `yaml:"job"`
	Dialect    string `yaml:"dialect"`
	Column     string `yaml:"column"`
	Mode       string `yaml:"mode"`
	Expression string `yaml:"expression"`
}

// Writer publishes compile results to a storage connection.
type Writer struct {
	conn   storageAdapter.StorageExecutor
	bucket string
	prefix string
}

// NewWriter creates a Writer. An empty bucket selects the connection's default.
func NewWriter(conn storageAdapter.StorageExecutor, bucket, prefix string) *Writer {
	return &Writer{conn: conn, bucket: bucket, prefix: prefix}
}

var _ usecase.PlanPublisher = (*Writer)(nil)

// Publish writes <prefix>/<workflow>.yaml for every workflow and
// <prefix>/predicates.yaml for the run, then removes manifests directly
// under the prefix that the run did not write.
func (w *Writer) Publish(ctx context.Context, result *usecase.Result) error {
	written := make(map[string]struct{}, len(result.Workflows)+1)
	for _, wf := range result.Workflows {
		doc := NewWorkflowManifest(result.RunID, wf.Wiring)
		object, err := w.put(ctx, wf.Name+".yaml", doc)
		if err != nil {
			return err
		}
		written[object] = struct{}{}
	}
	object, err := w.put(ctx, PredicatesObject, NewPredicatesManifest(result))
	if err != nil {
		return err
	}
	written[object] = struct{}{}

	pruned, err := w.prune(ctx, written)
	if err != nil {
		return err
	}
	logger.Infof("Published %d workflow manifests for run %s (%d stale removed).", len(result.Workflows), result.RunID, pruned)
	return nil
}

// prune deletes .yaml objects in the prefix directory that are not in keep.
// Objects in deeper directories are left alone.
func (w *Writer) prune(ctx context.Context, keep map[string]struct{}) (int, error) {
	dir := path.Clean(w.prefix)
	listPrefix := ""
	if dir != "." {
		listPrefix = dir + "/"
	}

	var stale []string
	err := w.conn.ListObjects(ctx, w.bucket, listPrefix, func(objectName string) error {
		if path.Dir(objectName) != dir || path.Ext(objectName) != ".yaml" {
			return nil
		}
		if _, ok := keep[objectName]; !ok {
			stale = append(stale, objectName)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("list manifests under '%s': %w", listPrefix, err)
	}
	for _, objectName := range stale {
		if err := w.conn.DeleteObject(ctx, w.bucket, objectName); err != nil {
			return 0, fmt.Errorf("remove stale manifest '%s': %w", objectName, err)
		}
		logger.Debugf("Removed stale manifest '%s'.", objectName)
	}
	return len(stale), nil
}

func (w *Writer) put(ctx context.Context, name string, doc interface{}) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode manifest '%s': %w", name, err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode manifest '%s': %w", name, err)
	}
	object := path.Join(w.prefix, name)
	if err := w.conn.Upload(ctx, w.bucket, object, &buf, contentType); err != nil {
		return "", fmt.Errorf("upload manifest '%s': %w", object, err)
	}
	return object, nil
}

// NewWorkflowManifest converts a wiring to its manifest form.
func NewWorkflowManifest(runID string, wiring *sequence.Wiring) WorkflowManifest {
	m := WorkflowManifest{
		RunID:        runID,
		Workflow:     wiring.Name,
		Nested:       wiring.Nested,
		Start:        wiring.Start,
		Completion:   wiring.Completion,
		NextSequence: wiring.NextSequence,
		LookupMisses: wiring.LookupMisses,
	}
	for _, st := range wiring.Stages {
		sm := StageManifest{
			Index: st.Index,
			Style: string(st.Style),
			Entry: st.Entry,
			Fork:  st.Fork,
			Join:  st.Join,
			Next:  st.Next,
		}
		for _, b := range st.Branches {
			sm.Branches = append(sm.Branches, BranchManifest{
				Job:         b.JobID,
				Entry:       b.Entry,
				Work:        b.Work,
				SubWorkflow: b.SubWorkflow,
				Gate:        b.Gate,
			})
		}
		m.Stages = append(m.Stages, sm)
	}
	for _, t := range wiring.Transitions() {
		m.Transitions = append(m.Transitions, TransitionLine(t.From+" -> "+t.To))
	}
	return m
}

// NewPredicatesManifest collects the predicates and predicate errors of result.
func NewPredicatesManifest(result *usecase.Result) PredicatesManifest {
	m := PredicatesManifest{RunID: result.RunID, Predicates: []PredicateManifest{}}
	for _, p := range result.Predicates {
		m.Predicates = append(m.Predicates, predicateManifest(p))
	}
	if result.PredicateErrors != nil {
		m.Errors = unwrapAll(result.PredicateErrors)
	}
	return m
}

func predicateManifest(p model.IncrementalPredicate) PredicateManifest {
	return PredicateManifest{
		Job:        p.JobID,
		Dialect:    string(p.Dialect),
		Column:     p.Column,
		Mode:       string(p.Mode),
		Expression: p.Expression,
	}
}

// unwrapAll flattens a joined or multierror error into its messages.
func unwrapAll(err error) []string {
	if multi, ok := err.(interface{ WrappedErrors() []error }); ok {
		var out []string
		for _, e := range multi.WrappedErrors() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
