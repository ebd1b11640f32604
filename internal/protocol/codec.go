// Package protocol decodes frames received over the hub's live feed.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/five82/trawl/internal/hub"
)

// ErrMalformedFrame wraps every decode failure. Callers log and drop the frame.
var ErrMalformedFrame = errors.New("malformed frame")

// Message type tags as sent in the frame's messageType field.
const (
	TypeEntry         = "entry"
	TypeStatus        = "status"
	TypeToast         = "toast"
	TypeQueryMetadata = "queryMetadata"
	TypeStartTime     = "startTime"
)

// Message is one decoded live-feed frame. The concrete type is one of
// NewEntry, StatusUpdate, Notification, QueryMetadataUpdate or StartTime.
type Message interface {
	messageType() string
}

// NewEntry carries a freshly captured entry.
type NewEntry struct {
	Entry hub.Entry
}

// StatusUpdate replaces the tapping status.
type StatusUpdate struct {
	Pods []hub.PodStatus
}

// Notification is a toast for the operator.
type Notification struct {
	Kind      string
	Text      string
	AutoClose time.Duration
}

// QueryMetadataUpdate reports totals for the active filter and the live window boundary.
type QueryMetadataUpdate struct {
	Total              int64
	TruncatedTimestamp int64
	LeftOff            int64
}

// StartTime reports when the hub started capturing, in unix milliseconds.
type StartTime struct {
	Timestamp int64
}

func (NewEntry) messageType() string            { return TypeEntry }
func (StatusUpdate) messageType() string        { return TypeStatus }
func (Notification) messageType() string        { return TypeToast }
func (QueryMetadataUpdate) messageType() string { return TypeQueryMetadata }
func (StartTime) messageType() string           { return TypeStartTime }

// Type returns the wire tag of m.
func Type(m Message) string {
	if m == nil {
		return ""
	}
	return m.messageType()
}

// Notification kinds understood by the UI.
const (
	KindInfo    = "info"
	KindSuccess = "success"
	KindWarning = "warning"
	KindError   = "error"
)

type envelope struct {
	MessageType   string          `json:"messageType"`
	Data          json.RawMessage `json:"data"`
	TappingStatus json.RawMessage `json:"tappingStatus"`
}

// Decode parses one text frame.
func Decode(frame []byte) (Message, error) {
	if len(bytes.TrimSpace(frame)) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrMalformedFrame)
	}
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch env.MessageType {
	case TypeEntry:
		return decodeEntry(env.Data)
	case TypeStatus:
		return decodeStatus(env)
	case TypeToast:
		return decodeToast(env.Data)
	case TypeQueryMetadata:
		return decodeQueryMetadata(env.Data)
	case TypeStartTime:
		return decodeStartTime(env.Data)
	case "":
		return nil, fmt.Errorf("%w: missing messageType", ErrMalformedFrame)
	default:
		return nil, fmt.Errorf("%w: unknown messageType %q", ErrMalformedFrame, env.MessageType)
	}
}

func decodeEntry(data json.RawMessage) (Message, error) {
	if isNull(data) {
		return nil, fmt.Errorf("%w: entry without data", ErrMalformedFrame)
	}
	var probe struct {
		ID *int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: entry: %v", ErrMalformedFrame, err)
	}
	if probe.ID == nil {
		return nil, fmt.Errorf("%w: entry without id", ErrMalformedFrame)
	}
	var entry hub.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: entry: %v", ErrMalformedFrame, err)
	}
	return NewEntry{Entry: entry}, nil
}

func decodeStatus(env envelope) (Message, error) {
	payload := env.TappingStatus
	if isNull(payload) {
		payload = env.Data
	}
	if isNull(payload) {
		return StatusUpdate{}, nil
	}
	var pods []hub.PodStatus
	if err := json.Unmarshal(payload, &pods); err != nil {
		return nil, fmt.Errorf("%w: status: %v", ErrMalformedFrame, err)
	}
	return StatusUpdate{Pods: pods}, nil
}

func decodeToast(data json.RawMessage) (Message, error) {
	if isNull(data) {
		return nil, fmt.Errorf("%w: toast without data", ErrMalformedFrame)
	}
	var t hub.Toast
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: toast: %v", ErrMalformedFrame, err)
	}
	return Notification{
		Kind:      normalizeKind(t.Type),
		Text:      t.Text,
		AutoClose: time.Duration(t.AutoClose) * time.Millisecond,
	}, nil
}

func decodeQueryMetadata(data json.RawMessage) (Message, error) {
	if isNull(data) {
		return nil, fmt.Errorf("%w: queryMetadata without data", ErrMalformedFrame)
	}
	var meta hub.QueryMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: queryMetadata: %v", ErrMalformedFrame, err)
	}
	return QueryMetadataUpdate{
		Total:              meta.Total,
		TruncatedTimestamp: meta.TruncatedTimestamp,
		LeftOff:            meta.LeftOff,
	}, nil
}

func decodeStartTime(data json.RawMessage) (Message, error) {
	var ts int64
	if isNull(data) {
		return nil, fmt.Errorf("%w: startTime without data", ErrMalformedFrame)
	}
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("%w: startTime: %v", ErrMalformedFrame, err)
	}
	return StartTime{Timestamp: ts}, nil
}

func normalizeKind(kind string) string {
	switch kind {
	case KindSuccess, KindWarning, KindError, KindInfo:
		return kind
	case "warn":
		return KindWarning
	default:
		return KindInfo
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
