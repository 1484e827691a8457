package access

import "time"

// AuditEntry is one line of a record's audit log. Entries are never changed
// once appended.
type AuditEntry struct {
	Action    Action    `json:"action"`
	Detail    string    `json:"detail"`
	Invoker   string    `json:"invoker"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is the per-record value.
type Record struct {
	ACL          ACL          `json:"acl"`
	Significance int64        `json:"significance"`
	Log          []AuditEntry `json:"log"`
}

func (r *Record) appendLog(action Action, detail, invoker string, at time.Time) AuditEntry {
	e := AuditEntry{Action: action, Detail: detail, Invoker: invoker, Timestamp: at}
	r.Log = append(r.Log, e)
	return e
}
