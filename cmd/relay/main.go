package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"sempgateway/internal/bridge"
	"sempgateway/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

func main() {
	v := viper.New()
	v.SetDefault("RELAY_PORT", 5069)
	v.SetDefault("RELAY_TIMEOUT_SECS", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.AutomaticEnv()

	if err := logging.Init(v.GetString("LOG_LEVEL"), v.GetString("LOG_FORMAT")); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logging: %v\n", err)
		os.Exit(1)
	}
	logger := logging.WithComponent("relay")

	gin.SetMode(gin.ReleaseMode)
	relay := bridge.NewRelay(time.Duration(v.GetInt("RELAY_TIMEOUT_SECS"))*time.Second, logger)

	addr := fmt.Sprintf(":%d", v.GetInt("RELAY_PORT"))
	srv := &http.Server{Addr: addr, Handler: relay.Handler(), ReadHeaderTimeout: 10 * time.Second}
	logger.Info().Str("addr", addr).Msg("Public relay running")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Relay failed")
	}
}
