package websocket

import "encoding/json"

// ActionJobApplied is pushed after a job is marked as applied.
const ActionJobApplied = "job_applied"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// JobAppliedPayload is carried by ActionJobApplied messages.
type JobAppliedPayload struct {
	JobKey string `json:"jobKey"`
}

// NewJobAppliedMessage builds the notification sent after a job is marked as applied.
func NewJobAppliedMessage(jobKey string) ([]byte, error) {
	return encode(ActionJobApplied, JobAppliedPayload{JobKey: jobKey})
}

func encode(action string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Action: action, Payload: raw})
}
