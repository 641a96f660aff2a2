package domain

// Memory keys populated by the container itself.
const (
	// KeyInitHandlers holds the immutable handler spec list.
	KeyInitHandlers = "init_handlers"

	// InputHandlerIndex is the pipeline position of the input handler by convention.
	InputHandlerIndex = 0
)
