package app

import "time"

// defaults apply when neither the config file nor the environment sets a key.
var defaults = map[string]any{
	"tz":        "UTC",
	"log.level": "info",

	"server.address.http": ":8000",

	"modules.analyzer.enabled": true,

	"snowflake.node_id": -1,

	"storage.upload_dir": "uploads",
	"storage.graph_dir":  "static/graphs",
	"upload.max_bytes":   32 << 20,

	"llm.endpoint":    "https://api.openai.com/v1/chat/completions",
	"llm.api_key":     "",
	"llm.model":       "gpt-4o",
	"llm.temperature": 0.7,
	"llm.max_tokens":  1000,
	"llm.timeout":     60 * time.Second,

	"chart.concurrency": 4,
	"chart.width":       800,
	"chart.height":      600,

	"retention.max_age":        time.Duration(0),
	"retention.max_datasets":   0,
	"retention.sweep_interval": 5 * time.Minute,
}
