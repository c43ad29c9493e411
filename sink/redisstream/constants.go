package redisstream

// Stream entry field names. A backend worker reads these to re-deliver the
// event to each platform's conversion API.
const (
	fieldEventID     = "event_id"
	fieldEventName   = "event_name"
	fieldPayload     = "payload"    // raw encoded relay payload
	fieldContentType = "content_type"
	fieldProducedAt  = "producedAt" // int64 ns
)
