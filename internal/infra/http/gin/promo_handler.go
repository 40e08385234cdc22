package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	promoapp "rstays/internal/app/handlers/promo"
	"rstays/internal/app/queries"
)

type PromoHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h PromoHandler) Check(c *gin.Context) {
	query := promoapp.CheckQuery{Code: c.Param("code")}
	result, err := queries.Ask[promoapp.CheckQuery, *promoapp.CheckResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PromoHTTP = PromoHandler{}
