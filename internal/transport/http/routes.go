package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"finch/internal/analysis"
	"finch/internal/strategy"
)

func registerRoutes(g *gin.RouterGroup, deps Deps) {
	g.GET("/status", statusHandler(deps))
	g.GET("/strategies", listStrategiesHandler(deps))
	g.GET("/strategies/:name", describeStrategyHandler(deps))
	g.POST("/strategies/:name/params", configureStrategyHandler(deps))
	g.GET("/signals", signalsHandler(deps))
	g.GET("/candles", candlesHandler(deps))
	g.GET("/analysis", analysisHandler(deps))
}

func statusHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := gin.H{
			"symbol":   deps.Symbol,
			"interval": deps.Interval,
		}
		if deps.Store != nil {
			out["candles"] = deps.Store.Len()
		}
		if deps.Engine != nil {
			out["engine"] = deps.Engine.Stats()
		}
		if deps.Source != nil {
			out["source"] = deps.Source.Stats()
		}
		if deps.Account != nil {
			out["account"] = gin.H{
				"initial_balance": deps.Account.InitialBalance(),
				"quote_balance":   deps.Account.QuoteBalance(),
				"base_balance":    deps.Account.BaseBalance(),
				"trades":          len(deps.Account.Trades()),
			}
		}
		c.JSON(http.StatusOK, out)
	}
}

func listStrategiesHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		names := deps.Registry.ListAvailable()
		out := make([]strategy.Description, 0, len(names))
		for _, name := range names {
			desc, err := deps.Registry.Describe(name)
			if err != nil {
				continue
			}
			out = append(out, desc)
		}
		c.JSON(http.StatusOK, gin.H{"strategies": out})
	}
}

func describeStrategyHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		desc, err := deps.Registry.Describe(c.Param("name"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, desc)
	}
}

func configureStrategyHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params strategy.Params
		if err := c.ShouldBindJSON(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(params) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty params"})
			return
		}
		name := c.Param("name")
		if err := deps.Registry.Configure(name, params); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		desc, err := deps.Registry.Describe(name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, desc)
	}
}

func signalsHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Journal == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal journal not configured"})
			return
		}
		limit := queryInt(c, "limit", 50)
		recs, err := deps.Journal.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"signals": recs})
	}
}

func candlesHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "series store not configured"})
			return
		}
		limit := queryInt(c, "limit", 100)
		c.JSON(http.StatusOK, gin.H{
			"symbol":   deps.Symbol,
			"interval": deps.Interval,
			"candles":  deps.Store.Candles(limit),
		})
	}
}

func analysisHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "series store not configured"})
			return
		}
		candles := deps.Store.Candles(0)
		rep, err := analysis.BuildReport(candles, analysis.Settings{
			Symbol:   deps.Symbol,
			Interval: deps.Interval,
		})
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
