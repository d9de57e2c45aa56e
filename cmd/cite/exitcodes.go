package main

// Exit codes
const (
	ExitSuccess       = 0 // Success
	ExitError         = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError   = 2 // Configuration error (no repository, invalid paths)
	ExitDataError     = 3 // Data error (malformed input, validation failure, failed check)
	ExitNotFound      = 4 // Project, document, article or citation not found
	ExitStaleRevision = 5 // --revision no longer matches the project scope
)
