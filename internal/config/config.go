package config // package config loads application configuration from environment variables

import (
    "fmt"     // fmt builds the Mongo connection string
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "time"    // time holds gateway timeouts

    "github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets and identifiers are strings, the token
// lifetime is expressed in minutes as in the rest of the service.
type Config struct {
    Env          string // application environment (e.g. "development", "production")
    Port         string // HTTP port to listen on
    MongoURI     string // full Mongo connection string
    MongoDB      string // database holding menu, reviews, carts, users and payments
    JWTSecret    string // secret used to sign access tokens
    AccessTTLMin int    // access token time‑to‑live in minutes

    StripeSecretKey     string // card processor API key
    StripeVerifyIntents bool   // refuse card payments whose intent has not succeeded

    Gateway GatewayConfig // redirect payment gateway settings

    LogLevel string // zap level name
    LogFile  string // optional rotating log file

    RabbitURL string // broker for payment.completed events; empty disables publishing
    LedgerDSN string // MySQL DSN for the payment ledger; empty disables the ledger
}

// GatewayConfig groups the SSLCommerz store credentials and the URLs handed
// to the gateway when a payment is initiated.
type GatewayConfig struct {
    StoreID           string
    StorePass         string
    Sandbox           bool
    SuccessURL        string        // our callback, receives val_id
    FailURL           string        // front-end page
    CancelURL         string        // front-end page
    IPNURL            string        // our server-to-server notification endpoint
    PaymentHistoryURL string        // where the browser lands after a validated payment
    Timeout           time.Duration // outbound HTTP timeout
}

// Load reads configuration values from the environment (after loading an
// optional .env file) and returns a Config.  Required variables are enforced
// by must() and missing values cause the program to exit.
func Load() Config {
    _ = godotenv.Load() // a missing .env file is fine; real env vars win

    return Config{
        Env:          envStr("APP_ENV", "development"),
        Port:         envStr("APP_PORT", envStr("PORT", "5000")),
        MongoURI:     mongoURI(),
        MongoDB:      envStr("MONGO_DB", "mz_bossDB"),
        JWTSecret:    must("ACCESS_TOKEN_SECRET"),
        AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),

        StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
        StripeVerifyIntents: envBool("STRIPE_VERIFY_INTENTS", false),

        Gateway: GatewayConfig{
            StoreID:           os.Getenv("SSL_STORE_ID"),
            StorePass:         os.Getenv("SSL_STORE_PASS"),
            Sandbox:           envBool("SSL_SANDBOX", true),
            SuccessURL:        envStr("SSL_SUCCESS_URL", "http://localhost:5000/success-payment"),
            FailURL:           envStr("SSL_FAIL_URL", "http://localhost:5173/dashboard/cart"),
            CancelURL:         envStr("SSL_CANCEL_URL", "http://localhost:5173/dashboard/payment"),
            IPNURL:            envStr("SSL_IPN_URL", "http://localhost:5000/ipn-success-payment"),
            PaymentHistoryURL: envStr("PAYMENT_HISTORY_URL", "http://localhost:5173/dashboard/payment-history"),
            Timeout:           envDur("GATEWAY_TIMEOUT", 30*time.Second),
        },

        LogLevel: envStr("LOG_LEVEL", "info"),
        LogFile:  os.Getenv("LOG_FILE"),

        RabbitURL: envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
        LedgerDSN: os.Getenv("LEDGER_DSN"),
    }
}

// IsProduction reports whether the service runs with production defaults
// (JSON logs, no debug output).
func (c Config) IsProduction() bool { return c.Env == "production" || c.Env == "prod" }

// mongoURI prefers an explicit MONGO_URI and otherwise builds the Atlas
// connection string from DB_USER/DB_PASS the way the hosted cluster expects.
func mongoURI() string {
    if v := os.Getenv("MONGO_URI"); v != "" {
        return v
    }
    host := envStr("MONGO_HOST", "cluster0.ybs8l.mongodb.net")
    return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority&appName=Cluster0",
        must("DB_USER"), must("DB_PASS"), host)
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
