package contract

import "context"

// Extractor turns the latest customer message into form updates and a reply.
// Malformed model output is not an error: implementations return a fallback
// result instead. Errors are reserved for an unreachable collaborator.
type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) (ExtractionResult, error)
}

// Ledger is the append-only sink for finalized orders.
type Ledger interface {
	Append(ctx context.Context, entry LedgerEntry) error
}
