package sweep

import (
	"net/http"

	"github/chapool/go-sweeper/internal/api"
	"github/chapool/go-sweeper/internal/api/httperrors"
	core "github/chapool/go-sweeper/internal/sweep"
	"github/chapool/go-sweeper/internal/types"
	"github/chapool/go-sweeper/internal/util"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func PostSweepRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Sweep.POST("", postSweepHandler(s))
}

func postSweepHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostSweepPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		sources := make([]core.WalletID, 0, len(body.Sources))
		for _, source := range body.Sources {
			sources = append(sources, core.WalletID(source))
		}

		ctx, cancel := s.SweepContext(ctx)
		defer cancel()

		report, err := s.Sweep.SweepAll(ctx, sources, core.WalletID(swag.StringValue(body.Destination)))
		if err != nil {
			log.Error().Err(err).Int("sources", len(sources)).Msg("Sweep batch failed")
			return mapSweepError(err)
		}

		return c.JSON(http.StatusOK, report)
	}
}

func mapSweepError(err error) error {
	switch {
	case errors.Is(err, core.ErrInvalidDestination):
		return httperrors.ErrBadRequestInvalidDestination
	case errors.Is(err, core.ErrLedgerUnavailable):
		return httperrors.ErrServiceUnavailableLedger
	default:
		return httperrors.ErrInternalSweepFailed
	}
}
