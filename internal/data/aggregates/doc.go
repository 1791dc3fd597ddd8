// Package aggregates owns the write boundary for analytics events.
//
// Every public write runs through ExecuteWrite, which opens (or joins) one
// transaction, classifies driver failures into stable codes, and reports the
// outcome to tracing and metrics hooks.
package aggregates
