package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JobParameters holds parameters for a job execution.
// The demo job takes none, but the launcher and repositories carry them.
type JobParameters struct {
	Params map[string]interface{}
}

// NewJobParameters returns empty parameters.
func NewJobParameters() JobParameters {
	return JobParameters{Params: make(map[string]interface{})}
}

// Put stores a parameter.
func (jp JobParameters) Put(key string, value interface{}) {
	jp.Params[key] = value
}

// GetString returns a string parameter.
func (jp JobParameters) GetString(key string) (string, bool) {
	v, ok := jp.Params[key].(string)
	return v, ok
}

// String renders the parameters as JSON.
func (jp JobParameters) String() string {
	data, err := json.Marshal(jp.Params)
	if err != nil {
		return fmt.Sprintf("{[ERROR: %v]}", err)
	}
	return string(data)
}

// Value implements driver.Valuer.
func (jp JobParameters) Value() (driver.Value, error) {
	if jp.Params == nil {
		return "{}", nil
	}
	data, err := json.Marshal(jp.Params)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (jp *JobParameters) Scan(value interface{}) error {
	b, err := scanBytes(value, "JobParameters")
	if err != nil {
		return err
	}
	jp.Params = make(map[string]interface{})
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, &jp.Params); err != nil {
		return fmt.Errorf("failed to unmarshal JobParameters JSON: %w", err)
	}
	return nil
}
