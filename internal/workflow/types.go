package workflow

import (
	"bytes"
	"encoding/json"
	"time"
)

// ID accepts both JSON strings and numbers; the upstream API has used both.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Execution is one run of a workflow as reported by the automation API.
type Execution struct {
	ID         ID         `json:"id"`
	WorkflowID ID         `json:"workflowId"`
	Finished   bool       `json:"finished"`
	Mode       string     `json:"mode"`
	Status     string     `json:"status,omitempty"`
	StartedAt  *time.Time `json:"startedAt"`
	StoppedAt  *time.Time `json:"stoppedAt"`
	WaitTill   *time.Time `json:"waitTill"`
}

// ExecutionList is a page of executions.
type ExecutionList struct {
	Data       []Execution `json:"data"`
	NextCursor *string     `json:"nextCursor"`
}

// Workflow is the subset of workflow metadata the dashboard shows.
type Workflow struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// WorkflowList is a page of workflows.
type WorkflowList struct {
	Data       []Workflow `json:"data"`
	NextCursor *string    `json:"nextCursor"`
}

// ProxyRequest is the body accepted by the relay.
type ProxyRequest struct {
	Path   string `json:"path"`
	Method string `json:"method"`
}

// ErrorResponse is the error body returned by the relay.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
