package api

import (
	models "CoinPulse/internal/domain/models"
	"CoinPulse/internal/usecase"
	xhttp "CoinPulse/pkg/http"
	xlogger "CoinPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PredictionEchoHandler exposes the market prediction pipeline over HTTP.
type PredictionEchoHandler struct {
	logger      *xlogger.Logger
	predictions *usecase.PredictionService
}

func NewPredictionEchoHandler(logger *xlogger.Logger, predictions *usecase.PredictionService) *PredictionEchoHandler {
	return &PredictionEchoHandler{logger: logger, predictions: predictions}
}

func (h *PredictionEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/market-prediction")
	g.GET("/enhanced", h.Enhanced)
	g.GET("/history", h.History)
	g.GET("/backtest", h.Backtest)
}

func (h *PredictionEchoHandler) Enhanced(c echo.Context) error {
	res, err := h.predictions.Predict(c.Request().Context())
	if err != nil {
		h.logger.Error("prediction usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *PredictionEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	history, err := h.predictions.History(c.Request().Context(), req.Days, req.Limit)
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"history": history,
		"days":    req.Days,
	})
}

func (h *PredictionEchoHandler) Backtest(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.predictions.Backtest(c.Request().Context(), req.Days)
	if err != nil {
		h.logger.Error("backtest usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, report)
}
