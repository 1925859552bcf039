package config

import "time"

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID, webhookURL string) *Slack {
	return &Slack{
		botToken:   botToken,
		channelID:  channelID,
		webhookURL: webhookURL,
	}
}

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}

// NewOpenAIForTest creates an OpenAI config for testing purposes
func NewOpenAIForTest(apiKey string) *OpenAI {
	return &OpenAI{apiKey: apiKey}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, sqlitePath, projectID string) *Repository {
	return &Repository{
		backend:    backend,
		sqlitePath: sqlitePath,
		projectID:  projectID,
	}
}

// NewEmbeddingForTest creates an Embedding config for testing purposes
func NewEmbeddingForTest(backend string, dimension int) *Embedding {
	return &Embedding{
		backend:   backend,
		version:   "1",
		dimension: dimension,
		timeout:   time.Second,
		burst:     1,
		cacheSize: 16,
	}
}

// NewProviderForTest creates a Provider config for testing purposes
func NewProviderForTest(anthropicKey, routesFile string) *Provider {
	return &Provider{
		anthropicKey: anthropicKey,
		maxTokens:    100,
		routesFile:   routesFile,
		timeout:      time.Second,
		burst:        1,
	}
}

// NewAccessForTest creates an Access config for testing purposes
func NewAccessForTest(membersFile string) *Access {
	return &Access{membersFile: membersFile}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewContextForTest creates a Context config for testing purposes
func NewContextForTest(historyWindow, tokenBudget int, autoExtract bool) *Context {
	return &Context{
		preamble:      "test preamble",
		historyWindow: historyWindow,
		tokenBudget:   tokenBudget,
		autoExtract:   autoExtract,
	}
}
