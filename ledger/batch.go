package ledger

import (
	"context"
	"runtime"

	"github.com/vocdoni/confidential-transfers/transfer"
	"github.com/vocdoni/confidential-transfers/zk"
	"golang.org/x/sync/errgroup"
)

// BatchItem is a transfer submitted in a batch.
type BatchItem struct {
	Statement *transfer.Statement
	Proof     *zk.Proof
}

// BatchResult is the outcome of one batch item. Exactly one of Receipt and
// Err is set.
type BatchResult struct {
	Receipt *Receipt
	Err     error
}

// ApplyTransfers verifies the proofs of items in parallel and then applies
// the verified transfers one by one in input order, so several transfers of
// the same sender with consecutive nonces can go in the same batch. A failed
// item does not stop the rest. The returned slice has one result per item.
// If ctx is cancelled the items not yet applied fail with the context error.
func (l *Ledger) ApplyTransfers(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			if err := l.checkStatement(item.Statement, item.Proof); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Err = l.verifyProof(item.Statement, item.Proof)
			return nil
		})
	}
	// the workers never return an error
	_ = g.Wait()

	for i, item := range items {
		if results[i].Err != nil {
			logReject(item.Statement, results[i].Err)
			continue
		}
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		receipt, err := l.commit(item.Statement, item.Proof)
		if err != nil {
			logReject(item.Statement, err)
			results[i].Err = err
			continue
		}
		results[i].Receipt = receipt
	}
	return results
}
