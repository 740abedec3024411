package officetext

import "github.com/asalih/go-officetext/internal/docerr"

// Every error returned by ExtractText wraps one of these.
var (
	ErrorFormat      = docerr.ErrorFormat
	ErrorUnsupported = docerr.ErrorUnsupported
)
