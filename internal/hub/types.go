package hub

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one captured traffic entry as served by the hub.
type Entry struct {
	ID        int64    `json:"id"`
	Timestamp int64    `json:"timestamp"` // unix milliseconds
	Protocol  string   `json:"proto"`
	Method    string   `json:"method"`
	Path      string   `json:"path"`
	Status    int      `json:"status"`
	Summary   string   `json:"summary"`
	Src       Endpoint `json:"src"`
	Dst       Endpoint `json:"dst"`

	// Raw keeps the full payload as received. The live tail never looks inside it.
	Raw json.RawMessage `json:"-"`
}

// Endpoint describes one side of a captured exchange.
type Endpoint struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
	Port string `json:"port"`
}

// UnmarshalJSON decodes the display fields and retains the raw payload.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = Entry(p)
	e.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Time returns the capture time.
func (e Entry) Time() time.Time {
	if e.Timestamp <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.Timestamp)
}

// String renders a short label for logs.
func (e Entry) String() string {
	return fmt.Sprintf("entry#%d", e.ID)
}

// String renders host:port, preferring the resolved name.
func (p Endpoint) String() string {
	host := p.Name
	if host == "" {
		host = p.IP
	}
	if p.Port == "" {
		return host
	}
	return host + ":" + p.Port
}

// QueryMeta mirrors the meta block of /entries and the queryMetadata frame.
type QueryMeta struct {
	Total              int64 `json:"total"`
	LeftOff            int64 `json:"leftOff"`
	TruncatedTimestamp int64 `json:"truncatedTimestamp"`
}

// EntriesPage mirrors /entries. Data is ordered newest first.
type EntriesPage struct {
	Data []Entry    `json:"data"`
	Meta *QueryMeta `json:"meta"`
}

// PodStatus reports whether a workload is currently being tapped.
type PodStatus struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	IsTapped  bool   `json:"isTapped"`
}

// Toast is a user-facing notification pushed by the hub.
type Toast struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	AutoClose int64  `json:"autoClose"` // milliseconds
}
