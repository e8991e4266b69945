package merchantpolicy

import (
	"github.com/smallbiznis/ratewise/internal/merchantpolicy/repository"
	"github.com/smallbiznis/ratewise/internal/merchantpolicy/service"
	"go.uber.org/fx"
)

var Module = fx.Module("merchantpolicy",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
