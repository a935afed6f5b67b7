package audit

import "errors"

// ErrUnavailable indicates the audit persistence backend could not be
// reached. It is the only failure mode Append reports.
var ErrUnavailable = errors.New("audit log unavailable")
