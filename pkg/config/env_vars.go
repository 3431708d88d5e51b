package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBDriver = "STOREFRONT_DB_DRIVER"

	EnvRedisURL  = "STOREFRONT_REDIS_URL"
	EnvRedisAddr = "STOREFRONT_REDIS_ADDR"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvCartMaxLineQty     = "STOREFRONT_CART_MAX_LINE_QTY"
	EnvCatalogRefreshTTL  = "STOREFRONT_CATALOG_REFRESH_TTL"
	EnvStorageBackend     = "STOREFRONT_STORAGE_BACKEND"
	EnvStorageMemoryBytes = "STOREFRONT_STORAGE_MEMORY_CAPACITY_BYTES"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	StorageBackendRedis  = "redis"
	StorageBackendMemory = "memory"
)
