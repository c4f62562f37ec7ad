// Package console implements the operator console's controller.
//
// # State machine
//
//	LoggedOut --Login--> Authenticating --ok--> LoggedIn(contacts)
//	                                    --fail--> LoggedOut
//	LoggedIn(tab) --SelectTab--> LoggedIn(tab')
//	LoggedIn(*) --Logout--> LoggedOut
//
// # Mutations
//
// Every mutation, whatever its collection or kind, runs the same sequence:
// presence check, lock acquisition, verification token consumption, dispatch,
// then cache reconciliation and a success notification, or an error
// notification with the cache untouched. The lock is released on every path.
//
// Lock contention, missing verification and presence failures return errors
// for which Silent reports true; they never raise a notification.
//
// # Sessions
//
// Nothing is persisted. Logout discards the credential and all collections,
// and results of requests still in flight are discarded when they arrive.
package console
