// Package history bounds how much conversation context is forwarded to the
// AI companion service.
package history

// MaxContextMessages is the default cap on messages sent to the AI service.
const MaxContextMessages = 30

// Truncate returns the last max messages, or the input unchanged when it
// already fits. The returned slice aliases the input.
func Truncate[M any](messages []M, max int) []M {
	if len(messages) <= max {
		return messages
	}
	return messages[len(messages)-max:]
}

// Split partitions messages for summarization: old messages to be condensed
// into a summary, and recent ones forwarded verbatim. One slot of the budget
// is reserved for the summary itself, so recent holds at most max-1 messages.
func Split[M any](messages []M, max int) (old, recent []M) {
	if len(messages) <= max {
		return nil, messages
	}
	cut := len(messages) - (max - 1)
	return messages[:cut], messages[cut:]
}
