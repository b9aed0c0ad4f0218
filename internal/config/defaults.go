package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Telegram: TelegramConfig{
			Token: "${RELAYBOT_TOKEN}",
		},
		Operators: OperatorsConfig{
			Primary: 1,
		},
		Delivery: DeliveryConfig{
			Attempts:       3,
			BackoffSeconds: 2,
		},
		Transcript: TranscriptConfig{
			Backend: "memory",
			DBPath:  "~/.relaybot/transcripts.db",
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Listen:   "127.0.0.1:9091",
			Endpoint: "/metrics",
		},
	}
}
