package app

import (
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/pkg/config"
)

// NewLogger returns a JSON production logger, or a console logger outside
// production
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
