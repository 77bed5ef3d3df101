package core

import (
	"github.com/safval/DistributedDocumentStorage/utils"
)

// Env is the process scope shared by documents and hubs.
type Env struct {
	Types *Types
	Hubs  *Hubs
	Log   utils.Logger
}

// NewEnv returns an environment using the given type definitions.
func NewEnv(types *Types) *Env {
	return &Env{
		Types: types,
		Hubs:  NewHubs(),
		Log:   utils.NopLogger{},
	}
}

// WithLogger sets the logger and returns the environment.
func (e *Env) WithLogger(log utils.Logger) *Env {
	e.Log = log
	return e
}
