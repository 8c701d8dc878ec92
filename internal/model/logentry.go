package model

import (
	"fmt"
	"strings"
	"time"
)

// RawLogEntry is one event document from the conversation log store. Producers
// have shipped two naming conventions over time: business fields either at the
// top level or nested under a "context" subdocument. Both are decoded; Field
// and Normalized resolve between them.
type RawLogEntry struct {
	Timestamp           time.Time      `bson:"timestamp" json:"timestamp"`
	Component           string         `bson:"component,omitempty" json:"component,omitempty"`
	Level               string         `bson:"level,omitempty" json:"level,omitempty"`
	Message             string         `bson:"message,omitempty" json:"message,omitempty"`
	IntentName          string         `bson:"intentName,omitempty" json:"intent_name,omitempty"`
	QueryText           string         `bson:"queryText,omitempty" json:"query_text,omitempty"`
	DialogflowSessionID string         `bson:"dialogflowSessionId,omitempty" json:"dialogflow_session_id,omitempty"`
	SessionID           string         `bson:"session_id,omitempty" json:"session_id,omitempty"`
	SessionIDCamel      string         `bson:"sessionId,omitempty" json:"-"`
	Protocol            string         `bson:"protocolo,omitempty" json:"protocol,omitempty"`
	Priority            string         `bson:"prioridade,omitempty" json:"priority,omitempty"`
	Region              string         `bson:"uf,omitempty" json:"region,omitempty"`
	Channel             string         `bson:"channel,omitempty" json:"channel,omitempty"`
	Context             map[string]any `bson:"context,omitempty" json:"context,omitempty"`
}

// Field resolves a named business field on the entry. Names of the form
// "context.x" read the nested context subdocument; flat names read the
// top-level field first and fall back to the context value of the same name.
// Missing fields resolve to "".
func (e RawLogEntry) Field(name string) string {
	if rest, ok := strings.CutPrefix(name, "context."); ok {
		return e.contextString(rest)
	}

	var v string
	switch name {
	case "dialogflowSessionId":
		v = e.DialogflowSessionID
	case "session_id":
		v = e.SessionID
	case "sessionId":
		v = e.SessionIDCamel
	case "intentName":
		v = e.IntentName
	case "queryText":
		v = e.QueryText
	case "protocolo":
		v = e.Protocol
	case "prioridade":
		v = e.Priority
	case "uf":
		v = e.Region
	case "channel":
		v = e.Channel
	case "component":
		v = e.Component
	case "message":
		v = e.Message
	case "level":
		v = e.Level
	}
	if v != "" {
		return v
	}
	return e.contextString(name)
}

func (e RawLogEntry) contextString(name string) string {
	if e.Context == nil {
		return ""
	}
	v, ok := e.Context[name]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

// Normalized returns a copy with context-nested business fields promoted to
// their flat names wherever the flat field is absent.
func (e RawLogEntry) Normalized() RawLogEntry {
	out := e
	if out.IntentName == "" {
		out.IntentName = e.contextString("intentName")
	}
	if out.QueryText == "" {
		out.QueryText = e.contextString("queryText")
	}
	if out.Protocol == "" {
		out.Protocol = e.contextString("protocolo")
	}
	if out.Priority == "" {
		out.Priority = e.contextString("prioridade")
	}
	if out.Region == "" {
		out.Region = e.contextString("uf")
	}
	if out.Channel == "" {
		out.Channel = e.contextString("channel")
	}
	return out
}
