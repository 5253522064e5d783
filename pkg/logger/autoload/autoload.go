// Package autoload configures the global logger from LOG_* environment variables on import.
package autoload

import (
	configx "github.com/tanpawarit/support-dispatch/pkg/config"
	logx "github.com/tanpawarit/support-dispatch/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*conf)
}
