package identity

import (
	"github.com/smallbiznis/ratewise/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(service.New),
)
