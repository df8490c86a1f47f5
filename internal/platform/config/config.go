package config

import (
	"os"
	"strings"
	"time"

	platformstrings "dropspace/pkg/platform/strings"
)

// Server captures process-level configuration for the sale gateway.
type Server struct {
	Addr          string
	JWTSigningKey string

	// OwnerAddress is the privileged identity set at boot; it can later be
	// handed off through the ownership-transfer endpoint.
	OwnerAddress string

	// SaleAccount is the gateway's own account on the bank; purchase proceeds
	// land here before routing or sweeping.
	SaleAccount string

	// PayoutPolicy selects the deployment's fund handling: "forward" splits
	// proceeds to both beneficiaries on every purchase, "retain" holds them in
	// SaleAccount until an explicit sweep.
	PayoutPolicy string

	PostgresURL  string
	RedisURL     string
	KafkaBrokers []string
	AuditTopic   string

	Sale SaleParams
}

// SaleParams seeds the sale configuration at boot. All values are decimal
// strings except SaleStart (unix seconds) and the string fields.
type SaleParams struct {
	CollectionName     string
	CollectionSymbol   string
	BasePath           string
	Cap                string
	PerRequestLimit    string
	UnitPrice          string
	UnitFee            string
	SaleStart          string
	BeneficiaryPrimary string
	BeneficiaryFee     string
}

// ShutdownTimeout bounds graceful HTTP shutdown.
var ShutdownTimeout = 10 * time.Second

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:          getenv("DROPSPACE_ADDR", ":8080"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		OwnerAddress:  getenv("DROPSPACE_OWNER", "owner-dev"),
		SaleAccount:   getenv("DROPSPACE_SALE_ACCOUNT", "sale-gateway"),
		PayoutPolicy:  getenv("PAYOUT_POLICY", "forward"),
		PostgresURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		AuditTopic:    getenv("AUDIT_TOPIC", "dropspace.audit"),
		Sale: SaleParams{
			CollectionName:     getenv("COLLECTION_NAME", "Dropspace"),
			CollectionSymbol:   getenv("COLLECTION_SYMBOL", "DROP"),
			BasePath:           getenv("SALE_BASE_PATH", "https://dropspace.example/items/"),
			Cap:                getenv("SALE_CAP", "100000"),
			PerRequestLimit:    getenv("SALE_PER_REQUEST_LIMIT", "10"),
			UnitPrice:          getenv("SALE_UNIT_PRICE", "1000"),
			UnitFee:            getenv("SALE_UNIT_FEE", "10"),
			SaleStart:          getenv("SALE_START", "0"),
			BeneficiaryPrimary: os.Getenv("SALE_BENEFICIARY_PRIMARY"),
			BeneficiaryFee:     os.Getenv("SALE_BENEFICIARY_FEE"),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
