// Package graphstore implements the GraphEmitter (spec §4.6): it turns
// resolved elements and edges into batched, idempotent GraphMutation
// upserts against an opaque Store contract. The core is database-agnostic
// (spec §1); Store is implemented by whatever graph backend the driver is
// wired to. Batch/retry shape grounded on inspector/graph's Emitter
// interface (Emit(*File) ([]byte, error)), generalized from a single
// render call into an ordered, retryable multi-mutation submission.
package graphstore

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/viant/codegraph/cgerrors"
	"github.com/viant/codegraph/ir"
	"github.com/viant/codegraph/resolver"
)

// MutationOp discriminates a GraphMutation's operation.
type MutationOp string

const (
	OpUpsertNode MutationOp = "UpsertNode"
	OpUpsertEdge MutationOp = "UpsertEdge"
	OpDeleteNode MutationOp = "DeleteNode"
)

// GraphMutation is one opaque write the Emitter sends to the Store (spec
// §4.6): UpsertNode(canonicalId, kinds, properties) or
// UpsertEdge(sourceId, type, targetId, properties).
type GraphMutation struct {
	Op         MutationOp
	NodeID     ir.CanonicalId
	Kinds      []ir.ElementKind
	SourceID   ir.CanonicalId
	EdgeType   string
	TargetID   ir.CanonicalId
	Properties ir.Properties
}

// Store is the opaque graph-database contract (spec §4.6); the core never
// specifies Cypher/SQL, so any backend satisfying this interface works.
type Store interface {
	// Apply submits one ordered batch of mutations. Implementations must
	// apply node upserts before edge upserts within the batch (spec §4.6:
	// "Within a batch, order is: all node upserts first, then all edge
	// upserts" — Emitter already orders the slice it builds, Apply just
	// has to honor that order rather than reorder it).
	Apply(ctx context.Context, batch []GraphMutation) error
	// DeleteNodes removes nodes (and edges incident on them) by id, used
	// by incremental re-analysis (spec §8 scenario 6).
	DeleteNodes(ctx context.Context, ids []ir.CanonicalId) error
}

// RetryPolicy controls how many times Emit retries a failed batch before
// surfacing an EmitError (spec §7: "Retried according to the driver's
// retry policy; if the retry budget is exhausted...").
type RetryPolicy struct {
	MaxAttempts int
}

// DefaultRetryPolicy allows three attempts per batch (the first try plus
// two retries); callers with a flakier backend can configure more attempts.
func DefaultRetryPolicy() RetryPolicy { return RetryPolicy{MaxAttempts: 3} }

// Emitter batches elements/edges into GraphMutations and submits them to a
// Store (spec §4.6).
type Emitter struct {
	store     Store
	batchSize int
	retry     RetryPolicy
}

// New returns an Emitter writing to store in batches of batchSize mutations
// (spec §6: "batchSize — max mutations per batch").
func New(store Store, batchSize int, retry RetryPolicy) *Emitter {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Emitter{store: store, batchSize: batchSize, retry: retry}
}

// Emit submits elements and edges as ordered batches (nodes before edges
// within each batch), checking ctx between batches (spec §5: "the Emitter
// checks it between batches").
func (e *Emitter) Emit(ctx context.Context, elements []*ir.Element, edges []*resolver.Edge) error {
	mutations := buildMutations(elements, edges)
	return e.emitBatches(ctx, mutations)
}

func buildMutations(elements []*ir.Element, edges []*resolver.Edge) []GraphMutation {
	mutations := make([]GraphMutation, 0, len(elements)+len(edges))
	for _, el := range elements {
		mutations = append(mutations, GraphMutation{
			Op: OpUpsertNode, NodeID: el.ID, Kinds: []ir.ElementKind{el.Kind},
			Properties: sanitizeProperties(el.Properties),
		})
	}
	for _, ed := range edges {
		mutations = append(mutations, GraphMutation{
			Op: OpUpsertEdge, SourceID: ed.SourceID, EdgeType: ed.Type, TargetID: ed.TargetID,
			Properties: sanitizeProperties(ed.Properties),
		})
	}
	return mutations
}

// sanitizeProperties drops any property explicitly set to the sentinel
// value "undefined" (spec §4.6) and serializes array-of-object values to
// an opaque string since the Store contract only stores arrays of
// scalars as-is.
func sanitizeProperties(props ir.Properties) ir.Properties {
	if props == nil {
		return nil
	}
	out := make(ir.Properties, len(props))
	for k, v := range props {
		if s, ok := v.(string); ok && s == "undefined" {
			continue
		}
		if s, ok := serializeArrayOfObjects(v); ok {
			out[k] = s
			continue
		}
		out[k] = v
	}
	return out
}

// serializeArrayOfObjects reports whether v is an array-of-object value
// ([]map[string]interface{}, or []interface{} holding objects) and, if so,
// returns its JSON encoding — the
// Store contract only stores arrays of scalars as-is, so anything richer
// has to cross as an opaque string.
func serializeArrayOfObjects(v interface{}) (string, bool) {
	switch arr := v.(type) {
	case []map[string]interface{}:
		if len(arr) == 0 {
			return "", false
		}
		b, err := json.Marshal(arr)
		if err != nil {
			return "", false
		}
		return string(b), true
	case []interface{}:
		if len(arr) == 0 || !allObjects(arr) {
			return "", false
		}
		b, err := json.Marshal(arr)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
	return "", false
}

func allObjects(arr []interface{}) bool {
	for _, el := range arr {
		switch el.(type) {
		case map[string]interface{}, ir.Properties:
		default:
			return false
		}
	}
	return true
}

func (e *Emitter) emitBatches(ctx context.Context, mutations []GraphMutation) error {
	for i := 0; i < len(mutations); i += e.batchSize {
		select {
		case <-ctx.Done():
			return cgerrors.Wrap(ctx.Err(), "emitter: cancelled between batches")
		default:
		}
		end := i + e.batchSize
		if end > len(mutations) {
			end = len(mutations)
		}
		if err := e.applyWithRetry(ctx, i/e.batchSize, mutations[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// DeleteStale removes nodes no longer produced by a file's latest
// analysis (spec §8 scenario 6), delegating to the underlying Store.
func (e *Emitter) DeleteStale(ctx context.Context, ids []ir.CanonicalId) error {
	return e.store.DeleteNodes(ctx, ids)
}

func (e *Emitter) applyWithRetry(ctx context.Context, batchIndex int, batch []GraphMutation) error {
	attempts := e.retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := e.store.Apply(ctx, batch); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return cgerrors.NewEmitError(batchIndex, errors.WithStack(lastErr), true)
}
