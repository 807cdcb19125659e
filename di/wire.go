//go:build wireinject
// +build wireinject

package di

import (
	"clinicsched/config"
	"clinicsched/infras/jwt"
	"clinicsched/infras/otel"
	"clinicsched/infras/postgres"
	"clinicsched/infras/redis"
	"clinicsched/infras/s3"
	"clinicsched/permissions"
	"clinicsched/shared/cache"
	"clinicsched/transport/http"
	"clinicsched/transport/http/middleware"
	"clinicsched/transport/http/router"

	bookingRepository "clinicsched/internal/domains/booking/repository"
	bookingService "clinicsched/internal/domains/booking/service"
	scheduleRepository "clinicsched/internal/domains/schedule/repository"
	scheduleService "clinicsched/internal/domains/schedule/service"
	staffRepository "clinicsched/internal/domains/staff/repository"
	staffService "clinicsched/internal/domains/staff/service"

	bookingHandler "clinicsched/internal/handlers/booking"
	scheduleHandler "clinicsched/internal/handlers/schedule"
	staffHandler "clinicsched/internal/handlers/staff"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var staffDomain = wire.NewSet(
	staffRepository.New,
	staffService.New,
)

var scheduleDomain = wire.NewSet(
	scheduleRepository.New,
	scheduleService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var domains = wire.NewSet(
	staffDomain,
	scheduleDomain,
	bookingDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	staffHandler.New,
	scheduleHandler.New,
	bookingHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
