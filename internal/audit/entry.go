package audit

// Decisions recorded in the log.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
	DecisionError = "error"
)

// AuditEntry is one line in the hash-chained JSONL audit log.
// All fields are plain values so json.Marshal output is deterministic and
// line hashes are reproducible. Secrets, keys and ciphertext are never
// recorded, only the operation and its scope.
type AuditEntry struct {
	Timestamp  string `json:"ts"`
	ContextID  uint64 `json:"context_id"`
	Origin     string `json:"origin"`
	Op         string `json:"op"`
	Scope      string `json:"scope,omitempty"`
	Decision   string `json:"decision"`
	Reason     string `json:"reason,omitempty"`
	ConfigHash string `json:"config_hash"`
	PrevHash   string `json:"prev_hash"`
}
