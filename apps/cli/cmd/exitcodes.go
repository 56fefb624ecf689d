package cmd

// Exit codes for the storm-bringer CLI
const (
	// ExitSuccess indicates a 2xx response
	ExitSuccess = 0

	// ExitHTTPError indicates a response outside 200-299
	ExitHTTPError = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates no response was received
	ExitNetworkError = 4

	// ExitSchemaError indicates the response body failed schema validation
	ExitSchemaError = 5

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
