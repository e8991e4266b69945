package product

import (
	"github.com/smallbiznis/ratewise/internal/product/repository"
	"github.com/smallbiznis/ratewise/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
