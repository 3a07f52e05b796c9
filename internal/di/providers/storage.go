package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/pantryapp/pantry-server/internal/config"
	"github.com/pantryapp/pantry-server/internal/logger"
	"github.com/pantryapp/pantry-server/internal/media/images"
)

// ProvideImageStorage provides the recipe image storage.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := filepath.Join(cfg.ImagesPath(), "recipes")
	storage, err := images.NewStorage(path)
	if err != nil {
		return nil, err
	}

	log.Info("Image storage ready", "path", path)

	return storage, nil
}
