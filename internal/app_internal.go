package internal

import (
	"github.com/diem/whackadep/internal/domain/entities"
)

// AppInternal aggregates the wired controllers for the CLI entrypoint.
type AppInternal struct {
	controllers *[]entities.Controller
}

// NewAppInternal creates the application context from the controller slice.
func NewAppInternal(controllers *[]entities.Controller) *AppInternal {
	return &AppInternal{controllers: controllers}
}

// GetControllers returns every registered subcommand controller.
func (it *AppInternal) GetControllers() []entities.Controller {
	return *it.controllers
}
