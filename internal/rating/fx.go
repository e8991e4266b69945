package rating

import (
	"github.com/smallbiznis/ratewise/internal/cache"
	"github.com/smallbiznis/ratewise/internal/rating/repository"
	"github.com/smallbiznis/ratewise/internal/rating/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rating",
	fx.Provide(cache.NewAggregateCache),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
