package players

import "encoding/json"

const (
	ModeIngest   = "ingest_players"
	ModeRegister = "register_athena"
)

// Event is the Lambda payload.
type Event struct {
	Mode    string `json:"mode"`    // ingest_players | register_athena
	Letters string `json:"letters"` // "abc" or "a,b,c"; empty = all letters
	Policy  string `json:"policy"`  // fail_fast | skip
	Save    *bool  `json:"save"`    // write OUTPUT_PATH too (default false in Lambda)
}

// Raw is the undecoded invocation payload; an empty payload means the defaults.
type Raw = json.RawMessage

// Result summarizes one ingest run.
type Result struct {
	RunID      string   `json:"run_id"`
	Rows       int      `json:"rows"`
	Failed     []string `json:"failed_letters,omitempty"`
	CSVPath    string   `json:"csv_path,omitempty"`
	S3Key      string   `json:"s3_key,omitempty"`
	DDBWritten int      `json:"ddb_written,omitempty"`
}
