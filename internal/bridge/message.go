package bridge

import "encoding/json"

// MessageType names a bridge message.
type MessageType string

// Messages sent by the editor.
const (
	UpdateLayout    MessageType = "UPDATE_LAYOUT"
	SelectSection   MessageType = "SELECT_SECTION"
	DeselectSection MessageType = "DESELECT_SECTION"
	PreviewModeOn   MessageType = "PREVIEW_MODE_ON"
	PreviewModeOff  MessageType = "PREVIEW_MODE_OFF"
)

// Messages sent to the editor.
const (
	Ready          MessageType = "READY"
	SectionClicked MessageType = "SECTION_CLICKED"
	LayoutLoaded   MessageType = "LAYOUT_LOADED"
)

// Message is the envelope exchanged with the editor.
type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	SectionID string          `json:"sectionId,omitempty"`
	Layout    any             `json:"layout,omitempty"`
}
