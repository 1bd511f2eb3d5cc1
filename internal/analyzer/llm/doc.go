// Package llm is a minimal client for OpenAI-compatible chat completion
// endpoints. It sends one system and one user message per call and returns
// the first choice. Calls are not retried.
package llm
