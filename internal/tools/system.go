package tools

import (
	"context"
	"time"
)

// CurrentTimeInput defines input for the current_time tool (none needed).
type CurrentTimeInput struct{}

// CurrentTimeOutput is the current_time tool result.
type CurrentTimeOutput struct {
	Time     string `json:"time"`
	Unix     int64  `json:"unix"`
	ISO8601  string `json:"iso8601"`
	Timezone string `json:"timezone"`
}

// NewCurrentTimeTool creates the current_time definition. now is
// injectable for tests; nil means time.Now.
func NewCurrentTimeTool(now func() time.Time) (*Definition, error) {
	if now == nil {
		now = time.Now
	}
	return NewTool("current_time",
		"Get the current date and time in the server's local time zone. "+
			"Call this before answering any question about current dates, durations or how long ago something happened.",
		func(_ context.Context, _ CurrentTimeInput) (CurrentTimeOutput, error) {
			t := now()
			return CurrentTimeOutput{
				Time:     t.Format("2006-01-02 15:04:05 Monday"),
				Unix:     t.Unix(),
				ISO8601:  t.Format(time.RFC3339),
				Timezone: t.Location().String(),
			}, nil
		})
}
