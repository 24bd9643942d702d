// Package viewmodel keeps a set of owned fields consistent with application
// state.
//
// Base tracks whether any field changed since the last load or save, runs
// refresh and restore cycles that bracket every field in a suppression
// window, and aggregates per-field validation messages. A concrete
// view-model supplies an Updater whose DoUpdateView pushes model data into
// the fields; Base calls it inside every cycle.
//
// The cycle protocol:
//
//	RefreshView / RestoreOriginalValues
//	  guard already held?        -> return
//	  for each field (in order): SuppressNotifications(true), BeginFieldUpdate()
//	                             [restore only] RestoreOriginalValue()
//	  DoUpdateView()             errors and panics are logged, never returned
//	  for each field (in order): EndFieldUpdate(), SuppressNotifications(false)
//	  release guard
//
// The end phase and guard release run from a deferred bracket so no exit path
// leaves a field suppressed or the guard held.
//
// Base is not safe for concurrent use. Drive it from the goroutine that owns
// the user interface.
package viewmodel
