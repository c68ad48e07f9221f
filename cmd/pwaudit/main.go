package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // Every audited manifest is installable
	ExitAuditFailed = 1 // One or more manifests failed the audit
	ExitError       = 2 // Configuration or runtime error
)

// AuditFailureError indicates that the audit ran successfully,
// but one or more manifests are not installable.
type AuditFailureError struct {
	Message string
}

func (e *AuditFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var auditFailureErr *AuditFailureError
		if errors.As(err, &auditFailureErr) {
			os.Exit(ExitAuditFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
