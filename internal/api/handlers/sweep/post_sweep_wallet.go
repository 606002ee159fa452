package sweep

import (
	"net/http"

	"github/chapool/go-sweeper/internal/api"
	core "github/chapool/go-sweeper/internal/sweep"
	"github/chapool/go-sweeper/internal/types"
	"github/chapool/go-sweeper/internal/util"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
)

func PostSweepWalletRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Sweep.POST("/wallet", postSweepWalletHandler(s))
}

func postSweepWalletHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostSweepWalletPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		wallet := core.WalletID(swag.StringValue(body.Wallet))

		ctx, cancel := s.SweepContext(ctx)
		defer cancel()

		outcome, err := s.Sweep.SweepWallet(ctx, wallet, core.WalletID(swag.StringValue(body.Destination)))
		if err != nil {
			log.Error().Err(err).Str("wallet", string(wallet)).Msg("Failed to sweep wallet")
			return mapSweepError(err)
		}

		return c.JSON(http.StatusOK, outcome)
	}
}
