package dao

import (
	"fmt"
	"strings"

	"github.com/kmills/shortlink/env"
)

// CreateDao builds the LinkDao named by kind. Connection settings come
// from the environment: sqlite_path, postgres_uri, mysql_dsn, redis_uri,
// mongo_uri. An empty kind means sqlite.
func CreateDao(kind string) (LinkDao, error) {
	switch strings.ToLower(kind) {
	case "", "sqlite":
		return CreateSQLiteDB(env.StringOrDefault("sqlite_path", "./shortlink.db")), nil
	case "memory":
		return CreateMemoryDB(), nil
	case "postgres":
		return CreatePostgresDB(env.StringOrDefault("postgres_uri", "postgres://localhost:5432/shortlink")), nil
	case "mysql":
		return CreateMySQLDB(env.StringOrDefault("mysql_dsn", "root@tcp(localhost:3306)/shortlink")), nil
	case "redis":
		return CreateRedisDB(env.StringOrDefault("redis_uri", "localhost:6379")), nil
	case "mongo":
		return CreateMongoDB(env.StringOrDefault("mongo_uri", "mongodb://localhost:27017")), nil
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}
