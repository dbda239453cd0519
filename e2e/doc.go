// Package e2e holds the UI scenarios of the clinic web application.
//
// Every scenario runs in its own automation session:
//
//	go test ./e2e/...
//
// The target is configured like the flowcheck command (flowcheck.yml in
// this directory, the file named by FLOWCHECK_CONFIG, or FLOWCHECK_*
// environment variables). Without a base URL the scenarios run against the
// built-in stub application using the static driver, unless
// FLOWCHECK_DRIVER asks for another one.
//
// A scenario fails when the application answers differently than
// expected, and is skipped when an element it needs is not offered by the
// application at all.
package e2e
