// Package pool runs tasks on a fixed set of worker goroutines sharing one
// unbounded queue. Enqueue never blocks; StopWait closes the queue and
// waits until every queued and in-flight task has finished.
package pool
