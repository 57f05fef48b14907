package cmd

import (
	"log"

	"github.com/quatton/qwell/pkg/qerr"
)

// exitIfSdkError inspects errors returned from the SDK and emits user-friendly
// guidance before exiting. Non-SDK errors fall back to log.Fatalf.
func exitIfSdkError(err error) {
	if err == nil {
		return
	}
	switch {
	case qerr.IsCode(err, qerr.CodeUnauthorized):
		log.Fatalf("authentication required: run 'qwellctl login --email <you>' (%s)", qerr.Message(err))
	case qerr.IsCode(err, qerr.CodeTooManyEntries):
		log.Fatalf("daily limit reached: %s", qerr.Message(err))
	case qerr.IsCode(err, qerr.CodeStoreUnavailable), qerr.IsCode(err, qerr.CodeUpstream):
		log.Fatalf("server unavailable, try again later (%s)", qerr.Message(err))
	default:
		log.Fatalf("%v", err)
	}
}
