package config

// QueueConfig configures the RabbitMQ event publisher and the notifier.
// An empty URL disables publishing.
type QueueConfig struct {
	URL      string
	Exchange string
	LogPath  string // notifier output
}

// LoadQueueConfig reads RABBITMQ_URL and the QUEUE_* variables.
func LoadQueueConfig() QueueConfig {
	return QueueConfig{
		URL:      envStr("RABBITMQ_URL", ""),
		Exchange: envStr("QUEUE_EXCHANGE", ""),
		LogPath:  envStr("QUEUE_LOG_PATH", "logs/marketplace.log"),
	}
}
