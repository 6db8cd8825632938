package state

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"exsyn/syntax"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}

// PrepareSyntax creates rule store and engine from loaded configuration.
// Configuration and log must be set already.
func (e *LocalEnv) PrepareSyntax() error {
	if e.Cfg == nil {
		return errors.New("configuration is not loaded")
	}
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	e.Rules = e.Cfg.Syntax.RuleStore()
	e.Engine = syntax.New(e.Cfg.Syntax.Containers, log)

	log.Debug("Syntax prepared",
		zap.String("version", e.Rules.Version()),
		zap.Strings("sequence", e.Rules.Snapshot().Labels()),
		zap.Strings("containers", e.Engine.Containers()))
	return nil
}
