package httperrors

import (
	"net/http"

	"github/chapool/go-sweeper/internal/types"
)

var (
	ErrBadRequestInvalidDestination = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeINVALIDDESTINATION, "The destination wallet is invalid.")
	ErrServiceUnavailableLedger     = NewHTTPError(http.StatusServiceUnavailable, types.PublicHTTPErrorTypeLEDGERUNAVAILABLE, "The ledger is unavailable.")
	ErrInternalSweepFailed          = NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Sweep failed.")
)
