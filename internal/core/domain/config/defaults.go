package config

func DefaultPayloadConfig() *PayloadConfig {
	return &PayloadConfig{MaxSize: DefaultPayloadSize}
}
