package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time expresses the TTL and sweep durations
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for the
// hold lifetime and the sweep cadence.
type Config struct {
	Env                 string        // application environment (e.g. "dev", "prod")
	Port                string        // HTTP port to listen on
	DBUser              string        // database username
	DBPass              string        // database password (optional)
	DBHost              string        // database host address
	DBPort              string        // database port number
	DBName              string        // database name
	StripeKey           string        // secret API key for the payment gateway
	StripeWebhookSecret string        // endpoint secret used to verify webhook signatures
	Currency            string        // ISO currency code for payment intents
	HoldTTL             time.Duration // lifetime of a hold from creation to expiry
	SweepInterval       time.Duration // cadence of the expired-hold sweeper
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:                 must("APP_ENV"),                   // environment (dev/test/prod)
		Port:                must("APP_PORT"),                  // port to bind the HTTP server
		DBUser:              must("DB_USER"),                   // database user
		DBPass:              os.Getenv("DB_PASS"),              // database password (empty allowed)
		DBHost:              must("DB_HOST"),                   // database host
		DBPort:              must("DB_PORT"),                   // database port
		DBName:              must("DB_NAME"),                   // database name
		StripeKey:           must("STRIPE_SECRET_KEY"),         // gateway API key
		StripeWebhookSecret: must("STRIPE_WEBHOOK_SECRET"),     // webhook endpoint secret
		Currency:            envStr("CURRENCY", "usd"),         // payment currency
		HoldTTL:             minutes("HOLD_TTL_MIN", 30),       // hold lifetime
		SweepInterval:       seconds("SWEEP_INTERVAL_SEC", 60), // sweeper cadence
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// minutes reads an optional integer environment variable expressed in
// minutes, falling back to def when unset or invalid.
func minutes(key string, def int) time.Duration {
	return time.Duration(optInt(key, def)) * time.Minute
}

// seconds reads an optional integer environment variable expressed in
// seconds, falling back to def when unset or invalid.
func seconds(key string, def int) time.Duration {
	return time.Duration(optInt(key, def)) * time.Second
}

func optInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
