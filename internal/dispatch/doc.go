// Package dispatch runs the single long-lived loop that drains the event
// queue and executes commands one at a time.
//
// Each iteration:
//   - Takes the next event (blocking while the queue is empty)
//   - Validates that it carries a "request" parameter and unpacks it
//   - Publishes command.started with the request
//   - Resolves the command in the registry and runs its handler
//   - Publishes command.ended with the response
//
// Bracketing:
//   - Every request that unpacks gets exactly one started and one ended
//     notification, started first, with the handler running in between
//   - Events without a usable request are dropped before a bracket opens;
//     they are logged and reported on dispatcher.error only
//
// Error handling:
//   - Unknown command → failed response, kind command_not_found
//   - Handler returns *command.Error → failed response with its kind/subkind
//   - Parameter extraction error → domain_error (missing_key/type_mismatch)
//   - Handler exceeds its timeout and returns the context error → timeout
//   - Any other error, or a panic → unknown_error
//
// Nothing raised by a handler stops the loop. The loop ends only when its
// context is cancelled or Stop is called; both are observed while idle, so
// the command in flight always completes and its bracket closes.
//
// Timeouts are cooperative: the handler's context carries the deadline but
// the loop still waits for the handler to return, which keeps the
// one-command-at-a-time guarantee intact.
package dispatch
