package events

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/quayside/gangway/messages"
	"github.com/tidwall/gjson"
)

// ToJSON serializes an event for transport.
func ToJSON(event Event) ([]byte, error) {
	return json.Marshal(event)
}

// FromJSON decodes an event from its wire form. The payload's shape picks
// the concrete generic instantiation: tool-call payloads carry "tool_calls",
// tool results carry "tool_call_id", everything else is plain content.
func FromJSON(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}

	switch kind := gjson.GetBytes(data, "type").String(); kind {
	case "delim":
		var d Delim
		if err := d.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return d, nil
	case "chunk":
		if gjson.GetBytes(data, "chunk.tool_calls").Exists() {
			var c Chunk[messages.ToolCallMessage]
			if err := c.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return c, nil
		}
		var c Chunk[messages.AssistantMessage]
		if err := c.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return c, nil
	case "request":
		if gjson.GetBytes(data, "message.tool_call_id").Exists() {
			var r Request[messages.ToolResponse]
			if err := r.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return r, nil
		}
		var r Request[messages.UserMessage]
		if err := r.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return r, nil
	case "response":
		if gjson.GetBytes(data, "response.tool_calls").Exists() {
			var r Response[messages.ToolCallMessage]
			if err := r.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return r, nil
		}
		var r Response[messages.AssistantMessage]
		if err := r.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return r, nil
	case "error":
		var e Error
		if err := e.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", kind)
	}
}
