package commands

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all command providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(NewReportCache); err != nil {
		return err
	}
	if err := container.Provide(NewEngineAnalyzerFactory); err != nil {
		return err
	}
	if err := container.Provide(NewReviewCommand); err != nil {
		return err
	}

	// Bind interfaces to implementations
	if err := container.Provide(func(impl *ReviewCommand) Review {
		return impl
	}); err != nil {
		return err
	}

	return nil
}
