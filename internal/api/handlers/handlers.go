package handlers

import (
	"github/chapool/go-sweeper/internal/api"
	"github/chapool/go-sweeper/internal/api/handlers/common"
	"github/chapool/go-sweeper/internal/api/handlers/sweep"

	"github.com/labstack/echo/v4"
)

func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		common.GetReadyRoute(s),
		sweep.PostSweepRoute(s),
		sweep.PostSweepWalletRoute(s),
	}
}
