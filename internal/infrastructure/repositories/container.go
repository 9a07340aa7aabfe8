package repositories

import (
	"go.uber.org/dig"

	"github.com/diem/whackadep/config"
	domainRepos "github.com/diem/whackadep/internal/domain/repositories"
	"github.com/diem/whackadep/internal/infrastructure/repositories/cargometa"
	"github.com/diem/whackadep/internal/infrastructure/repositories/cratesio"
	"github.com/diem/whackadep/internal/infrastructure/repositories/osv"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Configuration is loaded once and shared by every client.
	if err := container.Provide(func() *config.Config {
		path, err := config.FindConfigFile()
		if err != nil {
			return config.Default()
		}
		cfg, loadErr := config.Load(path)
		if loadErr != nil {
			return config.Default()
		}
		return cfg
	}); err != nil {
		return err
	}

	if err := container.Provide(func(cfg *config.Config) *cratesio.CratesIORegistryRepository {
		return cratesio.NewCratesIORegistryRepository(cfg.Registry.BaseURL, cfg.Registry.RetryMax)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config) *osv.OSVAdvisoryRepository {
		return osv.NewOSVAdvisoryRepository(cfg.Advisories.BaseURL, cfg.Advisories.RetryMax)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config) *cargometa.CargoGraphRepository {
		return cargometa.NewCargoGraphRepository(cfg.Cargo.Binary)
	}); err != nil {
		return err
	}

	// Bind interfaces to implementations
	if err := container.Provide(func(impl *cratesio.CratesIORegistryRepository) domainRepos.RegistryRepository {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *osv.OSVAdvisoryRepository) domainRepos.AdvisoryRepository {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *cargometa.CargoGraphRepository) domainRepos.GraphRepository {
		return impl
	}); err != nil {
		return err
	}

	return nil
}
