// Package model defines the provider-neutral text generation interface used
// by the oracle layer, plus a deterministic MockModel for tests and offline
// runs. Concrete providers live in subpackages (openai, anthropic, gemini).
package model
