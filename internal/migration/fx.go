package migration

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ratewise/internal/config"
	identitydomain "github.com/smallbiznis/ratewise/internal/identity/domain"
	merchantpolicydomain "github.com/smallbiznis/ratewise/internal/merchantpolicy/domain"
	productdomain "github.com/smallbiznis/ratewise/internal/product/domain"
	ratingdomain "github.com/smallbiznis/ratewise/internal/rating/domain"
	"github.com/smallbiznis/ratewise/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node) error {
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql dev setups migrate from the models.
			if err := conn.AutoMigrate(
				&identitydomain.User{},
				&identitydomain.Session{},
				&productdomain.Product{},
				&ratingdomain.Rating{},
				&merchantpolicydomain.MerchantPolicy{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultAdmin(conn, cfg, genID)
	}),
)
