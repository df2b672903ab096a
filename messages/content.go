package messages

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var jsonNull = []byte(`null`)

// ContentOrParts is user-facing content: either a plain string or a list of
// typed parts (text, image, audio).
type ContentOrParts struct {
	Content string
	Parts   []ContentPart
	_       struct{} // require keyed usage
}

// MarshalJSON renders the string form when Content is set, the part array
// otherwise, and null when both are empty.
func (c ContentOrParts) MarshalJSON() ([]byte, error) {
	if strings.TrimSpace(c.Content) != "" {
		return json.Marshal(c.Content)
	}
	if c.Parts == nil {
		return jsonNull, nil
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON accepts either a JSON string or an array of typed parts.
func (c *ContentOrParts) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	if jv.IsArray() {
		aj := jv.Array()
		parts := make([]ContentPart, len(aj))
		for idx, ajv := range aj {
			tpe := ajv.Get("type").String()
			switch tpe {
			case "text":
				var part TextContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid text part at %d: %w", idx, err)
				}
				parts[idx] = part
			case "image":
				var part ImageContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid image part at %d: %w", idx, err)
				}
				parts[idx] = part
			case "audio":
				var part AudioContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid audio part at %d: %w", idx, err)
				}
				parts[idx] = part
			default:
				return fmt.Errorf("content part at %d has an unknown type %q", idx, tpe)
			}
		}
		c.Parts = parts
		return nil
	}
	c.Content = jv.String()
	return nil
}

// AssistantContentOrParts is assistant-facing content: a plain string, a
// refusal, or a list of text/refusal parts. Content and Refusal are mutually
// exclusive.
type AssistantContentOrParts struct {
	Content string
	Parts   []AssistantContentPart
	Refusal string
	_       struct{} // require keyed usage
}

func (c AssistantContentOrParts) MarshalJSON() ([]byte, error) {
	if strings.TrimSpace(c.Content) != "" && strings.TrimSpace(c.Refusal) != "" {
		return nil, errors.New("both Content and Refusal are set")
	}
	if strings.TrimSpace(c.Content) != "" {
		return json.Marshal(c.Content)
	}
	if strings.TrimSpace(c.Refusal) != "" {
		return json.Marshal(c.Refusal)
	}
	if c.Parts == nil {
		return jsonNull, nil
	}
	return json.Marshal(c.Parts)
}

func (c *AssistantContentOrParts) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	if jv.IsArray() {
		aj := jv.Array()
		parts := make([]AssistantContentPart, len(aj))
		for idx, ajv := range aj {
			tpe := ajv.Get("type").String()
			switch tpe {
			case "text":
				var part TextContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid assistant text part at %d: %w", idx, err)
				}
				parts[idx] = part
			case "refusal":
				var part RefusalContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid assistant refusal part at %d: %w", idx, err)
				}
				parts[idx] = part
			default:
				return fmt.Errorf("content part at %d has an unknown type %q", idx, tpe)
			}
		}
		c.Parts = parts
		return nil
	}
	c.Content = jv.String()
	return nil
}

// ContentPart marks a struct as valid user message content.
type ContentPart interface {
	contentPart()
}

// AssistantContentPart marks a struct as valid assistant message content.
type AssistantContentPart interface {
	assistantContentPart()
}

// Text builds a text content part.
func Text(text string) TextContentPart {
	return TextContentPart{Text: text}
}

// TextContentPart is a text fragment; valid in user and assistant content.
type TextContentPart struct {
	Text string `json:"text"`
	_    struct{}
}

func (TextContentPart) contentPart()          {}
func (TextContentPart) assistantContentPart() {}

var tcpJSON = []byte(`{"type":"text"}`)

func (t TextContentPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(tcpJSON, "text", t.Text)
}

func (t *TextContentPart) UnmarshalJSON(input []byte) error {
	text := gjson.GetBytes(input, "text")
	if !text.Exists() {
		return errors.New("missing required field 'text'")
	}
	t.Text = text.String()
	return nil
}

// Refusal builds a refusal content part.
func Refusal(reason string) RefusalContentPart {
	return RefusalContentPart{Refusal: reason}
}

// RefusalContentPart carries a model refusal; assistant content only.
type RefusalContentPart struct {
	Refusal string `json:"refusal"`
	_       struct{}
}

func (RefusalContentPart) assistantContentPart() {}

var rcpJSON = []byte(`{"type":"refusal"}`)

func (t RefusalContentPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(rcpJSON, "refusal", t.Refusal)
}

func (t *RefusalContentPart) UnmarshalJSON(input []byte) error {
	refusal := gjson.GetBytes(input, "refusal")
	if !refusal.Exists() {
		return errors.New("missing required field 'refusal'")
	}
	t.Refusal = refusal.String()
	return nil
}

// Image builds an image content part from a URL.
func Image(url string) ImageContentPart {
	return ImageContentPart{URL: url}
}

// ImageContentPart references an image by URL. Detail follows the provider's
// fidelity hints ("low", "high", "auto").
type ImageContentPart struct {
	URL    string `json:"image_url"`
	Detail string `json:"detail,omitempty"`
	_      struct{}
}

func (ImageContentPart) contentPart() {}

var icpJSON = []byte(`{"type":"image"}`)

func (i ImageContentPart) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(icpJSON, "image_url", i.URL)
	if err != nil {
		return nil, err
	}
	if i.Detail != "" {
		result, err = sjson.SetBytes(result, "detail", i.Detail)
	}
	return result, err
}

func (i *ImageContentPart) UnmarshalJSON(input []byte) error {
	uri := gjson.GetBytes(input, "image_url")
	if !uri.Exists() {
		return errors.New("missing required field 'image_url'")
	}
	i.URL = uri.String()
	i.Detail = gjson.GetBytes(input, "detail").String()
	return nil
}

// InputAudio is raw audio data plus its encoding format. The data travels as
// base64 on the wire.
type InputAudio struct {
	Data   []byte `json:"-"`
	Format string `json:"format"`
	_      struct{}
}

func (i InputAudio) MarshalJSON() ([]byte, error) {
	type alias InputAudio
	return json.Marshal(&struct {
		Data string `json:"data"`
		*alias
	}{
		Data:  base64.StdEncoding.EncodeToString(i.Data),
		alias: (*alias)(&i),
	})
}

func (i *InputAudio) UnmarshalJSON(data []byte) error {
	type alias InputAudio
	aux := &struct {
		Data string `json:"data"`
		*alias
	}{
		alias: (*alias)(i),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	i.Data, err = base64.StdEncoding.DecodeString(aux.Data)
	return err
}

// Audio builds an audio content part from raw data and a format such as
// "wav" or "mp3".
func Audio(data []byte, format string) ContentPart {
	return AudioContentPart{
		InputAudio: InputAudio{
			Data:   data,
			Format: format,
		},
	}
}

// AudioContentPart carries input audio; user content only.
type AudioContentPart struct {
	InputAudio InputAudio `json:"input_audio"`
	_          struct{}
}

func (AudioContentPart) contentPart() {}

var acpJSON = []byte(`{"type":"audio"}`)

func (i AudioContentPart) MarshalJSON() ([]byte, error) {
	jj, err := json.Marshal(i.InputAudio)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(acpJSON, "input_audio", jj)
}

func (i *AudioContentPart) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return errors.New("invalid json for audio part")
	}

	audioJSON := gjson.GetBytes(input, "input_audio")
	if !audioJSON.Exists() {
		return errors.New("missing required field 'input_audio'")
	}
	if !audioJSON.IsObject() {
		return errors.New("'input_audio' must be an object")
	}

	data := audioJSON.Get("data")
	format := audioJSON.Get("format")
	if !data.Exists() || !format.Exists() {
		return errors.New("input_audio requires both 'data' and 'format' fields")
	}

	decoded, err := base64.StdEncoding.DecodeString(data.String())
	if err != nil {
		return fmt.Errorf("invalid base64 data: %w", err)
	}

	i.InputAudio = InputAudio{
		Data:   decoded,
		Format: format.String(),
	}
	return nil
}
