// Package prompts holds the prompt text sent to the vision and image
// generation services, and the templates that combine them.
package prompts
