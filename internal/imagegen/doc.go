// Package imagegen talks to a Doubao/Ark style images/generations endpoint.
//
// Generate posts a JSON request (model, prompt, size, guidance scale,
// watermark, seed) and expects the first result as a URL; Download fetches
// that URL into the outputs directory. Both report failures as errors the
// caller can inspect with errors.Is (ErrNoImageURL, ErrEmptyDownload) or
// errors.As (*APIError).
package imagegen
