package types

const (
	PublicHTTPErrorTypeGeneric            = "generic"
	PublicHTTPErrorTypeINVALIDDESTINATION = "INVALID_DESTINATION"
	PublicHTTPErrorTypeLEDGERUNAVAILABLE  = "LEDGER_UNAVAILABLE"
)

// PublicHTTPError is the JSON body of every error response.
type PublicHTTPError struct {
	// HTTP status code returned for the error
	// Required: true
	Code *int64 `json:"status"`

	// More detailed, human-readable, optional explanation of the error
	Detail string `json:"detail,omitempty"`

	// Short, human-readable description of the error
	// Required: true
	Title *string `json:"title"`

	// Type of error returned, should be used for client-side error handling
	// Required: true
	Type *string `json:"type"`
}
