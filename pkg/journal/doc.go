// Package journal defines persistence-facing contracts for recording intent
// lifecycle decisions, plus a hook that bridges scope activity events into a
// Store.
//
// Responsibilities:
//   - Store only appends and reads Entry records; it owns nothing about how
//     scopes decide.
//   - Hook adapts a Store into an activity hook so scopes journal without
//     knowing the storage behind it.
//   - The core airlock package remains persistence-agnostic; durable
//     implementations stay behind Store adapters supplied by consumers.
//
// Data flow:
//
//	Scope -> activity.Hooks -> journal.Hook -> Store
package journal
