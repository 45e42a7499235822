package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// InfoEndpoint returns the ledger configuration and the verifying key
	// hash
	InfoEndpoint = "/info"
	// StateEndpoint returns the state root and the number of accounts
	StateEndpoint = "/state"

	// AccountsEndpoint is the endpoint for registering a new account
	AccountsEndpoint = "/accounts"
	// AccountEndpoint is the endpoint to get an account
	AccountURLParam = "key"
	AccountEndpoint = "/accounts/{" + AccountURLParam + "}"
	// AccountProofEndpoint returns the state tree proof of an account
	AccountProofEndpoint = "/accounts/{" + AccountURLParam + "}/proof"

	// TransfersEndpoint is the endpoint for submitting a transfer
	TransfersEndpoint = "/transfers"
	// TransferEndpoint is the endpoint to get an applied transfer
	TransferURLParam = "transferId"
	TransferEndpoint = "/transfers/{" + TransferURLParam + "}"
)
