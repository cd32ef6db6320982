package fees

type Config struct {
	ElectrumURL     string `envconfig:"ELECTRUM_URL"`
	ElectrumTimeout int    `envconfig:"ELECTRUM_TIMEOUT" default:"10"`
}
