// Package keys centralizes the storage key layout described in spec §6, so
// every component addresses the same logical records the same way.
package keys

import "fmt"

func Job(jid string) string            { return "job:" + jid }
func JobHistory(jid string) string     { return "job:" + jid + ":history" }
func JobHistorySeq(jid string) string  { return "job:" + jid + ":history:seq" }
func JobDependencies(jid string) string { return "job:" + jid + ":dependencies" }
func JobDependents(jid string) string  { return "job:" + jid + ":dependents" }

func QueueWaiting(q string) string   { return "queue:" + q + ":waiting" }
func QueueScheduled(q string) string { return "queue:" + q + ":scheduled" }
func QueueDepends(q string) string   { return "queue:" + q + ":depends" }
func QueueLocks(q string) string     { return "queue:" + q + ":locks" }

func Resource(rid string) string        { return "resource:" + rid }
func ResourceLocks(rid string) string   { return "resource:" + rid + ":locks" }
func ResourcePending(rid string) string { return "resource:" + rid + ":pending" }
func ResourcePendingSeq(rid string) string {
	return fmt.Sprintf("resource:%s:pending:seq", rid)
}

func Worker(wid string) string { return "worker:" + wid }

const (
	Completed  = "completed"
	Config     = "config"
	PutSeq     = "seq:put"
)
