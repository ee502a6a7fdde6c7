package postgres

import "fmt"

type Config struct {
	// ConnString overrides the individual fields when set
	ConnString  string `env:"DB_CONN_STR"`
	Host        string `env:"DB_HOST,default=localhost" validate:"required"`
	Port        int    `env:"DB_PORT,default=5432" validate:"gt=0"`
	User        string `env:"DB_USER,default=postgres" validate:"required"`
	Password    string `env:"DB_PASSWORD,default=postgres"`
	Name        string `env:"DB_NAME,default=bondcurve" validate:"required"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE,default=false"`
	SeedDemo    bool   `env:"DB_SEED_DEMO,default=false"`
}

// DSN returns the lib/pq connection string
func (c Config) DSN() string {
	if c.ConnString != "" {
		return c.ConnString
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}
