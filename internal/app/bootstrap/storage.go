package bootstrap

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/medconsult-ai/internal/booking"
	appconfig "github.com/wolfman30/medconsult-ai/internal/config"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// BuildSessionStore selects the booking session backend named by SESSION_BACKEND.
func BuildSessionStore(cfg *appconfig.Config, redisClient *redis.Client, awsCfg aws.Config, logger *logging.Logger) (booking.SessionStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	policy := booking.ExpiryPolicyFor(cfg.SessionRefreshOnUpdate)

	switch cfg.SessionBackend {
	case "", "memory":
		logger.Info("booking sessions in memory")
		return booking.NewMemorySessionStore(policy), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("bootstrap: redis session backend selected but redis is unavailable")
		}
		logger.Info("booking sessions in redis", "addr", cfg.RedisAddr)
		return booking.NewRedisSessionStore(redisClient, policy, cfg.SessionMaxAge), nil
	case "dynamodb":
		logger.Info("booking sessions in dynamodb", "table", cfg.SessionsTable)
		return booking.NewDynamoSessionStore(dynamodb.NewFromConfig(awsCfg), cfg.SessionsTable, policy, cfg.SessionMaxAge, logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown session backend %q", cfg.SessionBackend)
	}
}

// BuildAppointmentRepository uses Postgres when a pool is available and memory otherwise.
func BuildAppointmentRepository(pool *pgxpool.Pool, logger *logging.Logger) booking.AppointmentRepository {
	if logger == nil {
		logger = logging.Default()
	}
	if pool == nil {
		logger.Warn("DATABASE_URL not set; appointments are kept in memory")
		return booking.NewMemoryAppointmentRepository()
	}
	return booking.NewPostgresAppointmentRepository(pool)
}
