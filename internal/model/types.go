package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Message is a chat message reduced to what the listener needs.
type Message struct {
	SelfID      string
	UserID      string
	Text        string
	Timestamp   time.Time
	MessageType string // "group" or "private"
	GroupID     string // set for group messages only
	FromSelf    bool   // sent by the bot account itself
}

// OneBot v11 event, as pushed by NapCat and similar bridges.
type onebotV11 struct {
	SelfID      *int64          `json:"self_id"`
	Time        int64           `json:"time"`
	PostType    string          `json:"post_type"`
	MessageType string          `json:"message_type"`
	UserID      *int64          `json:"user_id"`
	GroupID     *int64          `json:"group_id"`
	Message     json.RawMessage `json:"message"` // string or []segment
	RawMessage  string          `json:"raw_message"`
	Sender      *struct {
		UserID *int64 `json:"user_id"`
	} `json:"sender"`
}

// internalMsg is the minimal shape accepted from other senders.
type internalMsg struct {
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"` // RFC 3339
}

type segment struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// SplitFrame returns the events carried by one frame, which is either a
// single object or an array of them.
func SplitFrame(raw []byte) []json.RawMessage {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return nil
	}
	if b[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(b, &arr); err != nil {
			return nil
		}
		return arr
	}
	return []json.RawMessage{b}
}

// Meta reports whether b is a meta event, and whether it is a heartbeat.
func Meta(b []byte) (meta, heartbeat bool) {
	var probe struct {
		PostType      string `json:"post_type"`
		MetaEventType string `json:"meta_event_type"`
	}
	if err := json.Unmarshal(b, &probe); err != nil || probe.PostType != "meta_event" {
		return false, false
	}
	return true, probe.MetaEventType == "heartbeat"
}

// DecodeMessage accepts a OneBot v11 message event or the internal shape.
func DecodeMessage(b []byte) (Message, bool) {
	var ob onebotV11
	if err := json.Unmarshal(b, &ob); err == nil && ob.PostType == "message" && ob.UserID != nil {
		m := Message{
			UserID:      strconv.FormatInt(*ob.UserID, 10),
			Text:        extractText(ob.Message, ob.RawMessage),
			Timestamp:   time.Unix(ob.Time, 0),
			MessageType: ob.MessageType,
		}
		if ob.SelfID != nil {
			m.SelfID = strconv.FormatInt(*ob.SelfID, 10)
			if ob.Sender != nil && ob.Sender.UserID != nil && *ob.Sender.UserID == *ob.SelfID {
				m.FromSelf = true
			}
			if *ob.UserID == *ob.SelfID {
				m.FromSelf = true
			}
		}
		if ob.GroupID != nil {
			m.GroupID = strconv.FormatInt(*ob.GroupID, 10)
		}
		return m, true
	}

	var im internalMsg
	if err := json.Unmarshal(b, &im); err == nil && im.UserID != "" && im.Text != "" {
		ts, err := time.Parse(time.RFC3339, im.Timestamp)
		if err != nil {
			ts = time.Time{}
		}
		return Message{UserID: im.UserID, Text: im.Text, Timestamp: ts}, true
	}
	return Message{}, false
}

func extractText(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}

	var segs []segment
	if err := json.Unmarshal(raw, &segs); err == nil && len(segs) > 0 {
		var b strings.Builder
		for _, seg := range segs {
			if seg.Type != "text" {
				continue
			}
			if t, ok := seg.Data["text"].(string); ok {
				b.WriteString(t)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return fallback
}
