// Package provider declares the neutral service contracts the connector
// adapters implement: chat completion with streaming events, embedding
// generation, image generation, and the audio surfaces. A connector
// translates between these contracts and its vendor SDK; callers never see
// vendor request or response types.
package provider
