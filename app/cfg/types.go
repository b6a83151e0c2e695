package cfg

type Cfg struct {
	// Storage
	DBPath string

	// Application configuration
	SourcesFile    string
	Port           string
	WorkerCount    int
	IngestInterval int // minutes
	APIAccessKey   string

	// Analysis backend
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Job queue (optional)
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// AnalyzerModel returns the model identifier recorded on analysis rows:
// the configured model when an API key is present, the stub sentinel
// otherwise.
func (c *Cfg) AnalyzerModel() string {
	if c.OpenAIAPIKey == "" {
		return "stub"
	}
	return c.OpenAIModel
}

// QueueEnabled reports whether an external job broker is configured.
func (c *Cfg) QueueEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
