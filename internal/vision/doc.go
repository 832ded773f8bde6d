// Package vision turns a screenshot into a text description using a vision
// model behind an OpenAI-compatible chat completions API (Doubao on
// Volcengine Ark by default).
//
// Each request carries the system prompt from package prompts and a single
// user message made of the instruction text and the image as a base64 data
// URL with high detail. Analyze never fails loudly: callers get an empty
// string and fall back to a canned prompt.
package vision
