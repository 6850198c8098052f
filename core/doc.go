// Package core defines the domain model shared by every component: chunks,
// document records, conversation turns, the session scoping rules, and the
// error taxonomy that user-visible failures map onto.
//
// Types here are plain data. Behavior lives in the packages that own the
// corresponding storage or pipeline stage.
package core
