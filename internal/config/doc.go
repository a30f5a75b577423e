// Package config loads, normalizes, and validates VideoTranSrt settings.
//
// It reads a TOML file (an explicit path, ~/.config/videotransrt/config.toml,
// or ./videotransrt.toml), picks up a .env file, and lets the usual provider
// environment variables (OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY,
// DEEPL_API_KEY) override keys from the file. The result converts into the
// option types the pipeline, transcribers, and translators consume.
package config
