package checkout

// State tracks a checkout attempt through the fulfillment pipeline. The flow
// is strictly forward; Aborted is terminal and reachable from any
// non-terminal state.
type State int

const (
	StateStarted State = iota
	StateItemsValidated
	StateOrdersCreated
	StateStockDebited
	StateTransactionRecorded
	StateNotifiedAndDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "Started"
	case StateItemsValidated:
		return "ItemsValidated"
	case StateOrdersCreated:
		return "OrdersCreated"
	case StateStockDebited:
		return "StockDebited"
	case StateTransactionRecorded:
		return "TransactionRecorded"
	case StateNotifiedAndDone:
		return "NotifiedAndDone"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Result is the terminal outcome of a checkout attempt.
type Result struct {
	State         State
	TransactionID string
	Message       string
}

const (
	msgNothingToOrder  = "nothing to order"
	msgOrderStepFailed = "order step failed"
	msgDebitFailed     = "stock debit failed"
	msgSuccess         = "order placed successfully"
)
