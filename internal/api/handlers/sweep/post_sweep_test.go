package sweep_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"testing"

	"github/chapool/go-sweeper/internal/api"
	core "github/chapool/go-sweeper/internal/sweep"
	"github/chapool/go-sweeper/internal/test"
	"github/chapool/go-sweeper/internal/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportResponse struct {
	BatchID     string `json:"batch_id"`
	Destination string `json:"destination"`
	Outcomes    []struct {
		Wallet string      `json:"wallet"`
		Status string      `json:"status"`
		Amount json.Number `json:"amount"`
		Reason string      `json:"reason"`
		Error  string      `json:"error"`
	} `json:"outcomes"`
}

func TestPostSweep(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		ledger := test.MemoryLedger(t, s)
		ledger.SetFee(big.NewInt(10))
		ledger.SetBalance("w1", core.SweepAsset, big.NewInt(100))
		ledger.SetBalance("w1", core.GasAsset, big.NewInt(50))
		ledger.SetBalance("w2", core.SweepAsset, big.NewInt(200))
		ledger.SetBalance("w2", core.GasAsset, big.NewInt(5))

		payload := map[string]interface{}{
			"sources":     []string{"w1", "w2", "w3"},
			"destination": "hot",
		}

		res := test.PerformRequest(t, s, "POST", "/api/v1/sweep", payload, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var response reportResponse
		test.ParseResponseAndValidate(t, res, &response)

		assert.NotEmpty(t, response.BatchID)
		assert.Equal(t, "hot", response.Destination)
		require.Len(t, response.Outcomes, 3)

		assert.Equal(t, "w1", response.Outcomes[0].Wallet)
		assert.Equal(t, "swept", response.Outcomes[0].Status)
		assert.Equal(t, "100", response.Outcomes[0].Amount.String())

		assert.Equal(t, "skipped", response.Outcomes[1].Status)
		assert.Equal(t, "insufficient_gas", response.Outcomes[1].Reason)

		assert.Equal(t, "skipped", response.Outcomes[2].Status)
		assert.Equal(t, "empty_balance", response.Outcomes[2].Reason)

		assert.Equal(t, "100", ledger.Balance("hot", core.SweepAsset).String())
		assert.Equal(t, "200", ledger.Balance("w2", core.SweepAsset).String())
	})
}

func TestPostSweepMissingDestination(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		payload := map[string]interface{}{
			"sources": []string{"w1"},
		}

		res := test.PerformRequest(t, s, "POST", "/api/v1/sweep", payload, nil)
		require.Equal(t, http.StatusBadRequest, res.Result().StatusCode)

		var response types.PublicHTTPError
		test.ParseResponseAndValidate(t, res, &response)
		assert.Equal(t, int64(http.StatusBadRequest), *response.Code)
		assert.Equal(t, "destination is required", response.Detail)
		assert.Empty(t, test.MemoryLedger(t, s).Transfers())
	})
}

func TestPostSweepMalformedBody(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", "/api/v1/sweep", `{"sources":`, nil)
		require.Equal(t, http.StatusBadRequest, res.Result().StatusCode)
	})
}

type unavailableLedger struct{}

func (unavailableLedger) GetBalance(context.Context, core.WalletID, core.Asset) (*big.Int, error) {
	return nil, errors.Wrap(core.ErrLedgerUnavailable, "node down")
}

func (unavailableLedger) GetFee(context.Context) (*big.Int, error) {
	return nil, errors.Wrap(core.ErrLedgerUnavailable, "node down")
}

func (unavailableLedger) Transfer(context.Context, core.WalletID, core.WalletID, core.Asset, *big.Int) error {
	return errors.Wrap(core.ErrLedgerUnavailable, "node down")
}

func TestPostSweepLedgerUnavailable(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		s.Sweep = core.NewService(unavailableLedger{})

		payload := map[string]interface{}{
			"sources":     []string{"w1"},
			"destination": "hot",
		}

		res := test.PerformRequest(t, s, "POST", "/api/v1/sweep", payload, nil)
		require.Equal(t, http.StatusServiceUnavailable, res.Result().StatusCode)

		var response types.PublicHTTPError
		test.ParseResponseAndValidate(t, res, &response)
		assert.Equal(t, types.PublicHTTPErrorTypeLEDGERUNAVAILABLE, *response.Type)
	})
}

func TestPostSweepWallet(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		ledger := test.MemoryLedger(t, s)
		ledger.SetFee(big.NewInt(1))
		ledger.SetBalance("w1", core.SweepAsset, big.NewInt(42))
		ledger.SetBalance("w1", core.GasAsset, big.NewInt(1))

		payload := map[string]interface{}{
			"wallet":      "w1",
			"destination": "hot",
		}

		res := test.PerformRequest(t, s, "POST", "/api/v1/sweep/wallet", payload, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var response map[string]interface{}
		test.ParseResponseAndValidate(t, res, &response)
		assert.Equal(t, "w1", response["wallet"])
		assert.Equal(t, "swept", response["status"])

		// the second run finds nothing left
		res = test.PerformRequest(t, s, "POST", "/api/v1/sweep/wallet", payload, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		test.ParseResponseAndValidate(t, res, &response)
		assert.Equal(t, "skipped", response["status"])
		assert.Equal(t, "empty_balance", response["reason"])
		assert.Len(t, ledger.Transfers(), 1)
	})
}

func TestPostSweepWalletMissingWallet(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		payload := map[string]interface{}{
			"destination": "hot",
		}

		res := test.PerformRequest(t, s, "POST", "/api/v1/sweep/wallet", payload, nil)
		require.Equal(t, http.StatusBadRequest, res.Result().StatusCode)
	})
}
