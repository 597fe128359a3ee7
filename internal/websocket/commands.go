package websocket

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Handle processes one command received from the client.
func (c *Client) Handle(raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.replyError("invalid_message", "message is not valid JSON", "")
		return
	}

	switch msg.Type {
	case TypePing:
		c.reply(NewMessage(TypePong, nil))

	case TypeVisibility:
		var p VisibilityPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.replyError("invalid_payload", "visibility payload must be {\"visible\": bool}", string(msg.Type))
			return
		}
		c.SetVisible(p.Visible)
		c.hub.logger.Debug("client visibility changed", zap.Bool("visible", p.Visible))

	default:
		c.replyError("unknown_type", "unsupported message type", string(msg.Type))
	}
}

func (c *Client) replyError(code, message, original string) {
	c.reply(NewMessage(TypeError, ErrorPayload{Code: code, Message: message, OriginalType: original}))
}

func (c *Client) reply(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		return
	}
	if !c.Reply(data) {
		c.hub.logger.Debug("reply dropped", zap.String("type", string(msg.Type)))
	}
}
