// Package main contains the command that runs the crokinole shot controller
// against a live arm.
package main

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	goutils "go.viam.com/utils"

	"github.com/varununayak/robot-arm-crokinole/blackboard"
	"github.com/varununayak/robot-arm-crokinole/config"
	"github.com/varununayak/robot-arm-crokinole/controller"
)

func main() {
	goutils.ContextualMain(mainWithArgs, newLogger(false))
}

// Arguments for the command.
type Arguments struct {
	ConfigFile string `flag:"config,usage=controller config file"`
	Debug      bool   `flag:"debug"`
}

// newLogger builds the process logger. The controller's per cycle
// diagnostics log at debug, so the level is info unless asked for.
func newLogger(debug bool) golog.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zap.Must(cfg.Build()).Sugar().Named("crokinole_controller")
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Debug {
		logger = newLogger(true)
	}

	cfg := config.DefaultConfig()
	if argsParsed.ConfigFile != "" {
		var err error
		cfg, err = config.Read(argsParsed.ConfigFile, logger)
		if err != nil {
			return err
		}
	}

	return runController(ctx, cfg, logger)
}

func runController(ctx context.Context, cfg *config.Config, logger golog.Logger) (err error) {
	bb, err := blackboard.New(ctx, cfg.Blackboard, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, bb.Close())
	}()

	evaluator, err := blackboard.NewEvaluator(bb, cfg.NumJoints)
	if err != nil {
		return err
	}
	ctrl, err := controller.New(cfg, bb, evaluator, clock.New(), logger)
	if err != nil {
		return err
	}

	goutils.ContextMainReadyFunc(ctx)()
	return ctrl.Run(ctx)
}
