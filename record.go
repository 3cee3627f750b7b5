package cfddns

import (
	"encoding/json"
	"fmt"
)

// DNSRecord is a record as returned by the Cloudflare API.
//
// Only the fields below are interpreted.
// Every other field read from the API is kept and written back unmodified when the record is updated.
type DNSRecord struct {
	ID         string
	ZoneID     string
	Type       string
	Name       string
	Content    string
	ModifiedOn string

	extra map[string]json.RawMessage
}

var recordFields = []string{"id", "zone_id", "type", "name", "content", "modified_on"}

func (r *DNSRecord) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	targets := map[string]*string{
		"id":          &r.ID,
		"zone_id":     &r.ZoneID,
		"type":        &r.Type,
		"name":        &r.Name,
		"content":     &r.Content,
		"modified_on": &r.ModifiedOn,
	}
	for _, k := range recordFields {
		v, ok := raw[k]
		if !ok {
			continue
		}
		delete(raw, k)
		if string(v) == "null" {
			continue
		}
		if err := json.Unmarshal(v, targets[k]); err != nil {
			return fmt.Errorf("record field %q: %w", k, err)
		}
	}
	r.extra = raw
	return nil
}

func (r DNSRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.extra)+len(recordFields))
	for k, v := range r.extra {
		out[k] = v
	}
	out["id"] = r.ID
	out["type"] = r.Type
	out["content"] = r.Content
	// absent fields stay absent so the request mirrors what was read
	if r.ZoneID != "" {
		out["zone_id"] = r.ZoneID
	}
	if r.Name != "" {
		out["name"] = r.Name
	}
	if r.ModifiedOn != "" {
		out["modified_on"] = r.ModifiedOn
	}
	return json.Marshal(out)
}

// Field returns the raw JSON of a field that DNSRecord does not interpret, such as "ttl" or "proxied".
func (r DNSRecord) Field(name string) (json.RawMessage, bool) {
	v, ok := r.extra[name]
	return v, ok
}

// FilterRecords returns the records whose type equals recordType, preserving order.
func FilterRecords(records []DNSRecord, recordType string) []DNSRecord {
	var out []DNSRecord
	for _, r := range records {
		if r.Type == recordType {
			out = append(out, r)
		}
	}
	return out
}

// RecordResult is the outcome of one record update.
type RecordResult struct {
	Record DNSRecord
	Err    error
}
