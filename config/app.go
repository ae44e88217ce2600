package config

type App struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	JWTTTLHours int
	Env         string

	LogLevel  string
	LogFormat string

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AWSRegion    string
	AWSKeyID     string
	AWSSecretKey string
	S3Bucket     string

	GatewayURL           string
	GatewayKey           string
	GatewayCallbackToken string

	LeaseExpiryCron    string
	InvoiceOverdueCron string
	RequestRatePerMin  int
}

func (a App) MongoEnabled() bool { return a.MongoURI != "" }
func (a App) RedisEnabled() bool { return a.RedisAddr != "" }
func (a App) S3Enabled() bool    { return a.S3Bucket != "" }

func (a App) GatewayEnabled() bool { return a.GatewayURL != "" && a.GatewayKey != "" }
