package transaction

// Messages shared by every parser for whole-input outcomes.
const (
	ErrEmptyInput     = "input is empty"
	ErrNoTransactions = "no transactions found"
)

// Result is the outcome of parsing one document.
// Success is true iff at least one transaction was produced; errors may be
// present alongside a successful partial extraction.
type Result struct {
	Success      bool                `json:"success"`
	Transactions []ParsedTransaction `json:"transactions"`
	Errors       []string            `json:"errors"`
}

// NewResult assembles a result from the transactions and errors collected.
func NewResult(txs []ParsedTransaction, errs []string) Result {
	if txs == nil {
		txs = []ParsedTransaction{}
	}
	if errs == nil {
		errs = []string{}
	}
	return Result{
		Success:      len(txs) > 0,
		Transactions: txs,
		Errors:       errs,
	}
}

// Failure builds a document-level failure: no transactions, the given errors.
func Failure(errs ...string) Result {
	return NewResult(nil, errs)
}
