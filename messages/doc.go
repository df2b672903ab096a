// Package messages defines the chat content model shared by the provider
// connectors: typed message payloads (user, assistant, tool call, tool
// response), multipart content (text, image, audio, refusal), the generic
// Message envelope, and the History aggregator that carries a conversation
// through a completion run.
//
// Content values serialize the way chat APIs expect them: a plain string
// when the message is simple text, or an array of typed parts discriminated
// by a "type" field. All codecs are implemented with goccy/go-json plus
// gjson/sjson so partial documents can be read and patched without
// intermediate structs.
package messages
