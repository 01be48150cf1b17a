// Package autoload initializes the global logger from LOG_* settings on import.
package autoload

import (
	configx "github.com/tanpawarit/chative-commerce-orchestrator/pkg/config"
	logx "github.com/tanpawarit/chative-commerce-orchestrator/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
