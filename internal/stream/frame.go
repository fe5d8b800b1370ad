package stream

import (
	"encoding/json"

	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/domain"
)

// keepAliveFrame is an SSE comment, invisible to EventSource clients
// but enough to keep intermediaries from dropping an idle connection.
var keepAliveFrame = []byte(": ping\n\n")

// StateFrame serializes a full room state into an SSE data frame.
// Every push carries the complete state, never a diff.
func StateFrame(state domain.RoomState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 0, len(data)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, data...)
	frame = append(frame, "\n\n"...)
	return frame, nil
}

// KeepAliveFrame returns the comment frame sent on the keep-alive timer.
func KeepAliveFrame() []byte {
	return keepAliveFrame
}
