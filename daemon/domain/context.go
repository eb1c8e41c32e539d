package domain

// Context holds the application runtime context: the shared event hub and
// the immutable config snapshot. It is passed by pointer to every
// long-running component so none of them need a package-level singleton.
type Context struct {
	Hub *EventBus
	Config
}
