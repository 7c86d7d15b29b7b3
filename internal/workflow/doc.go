// Package workflow drives subtitle downloads through the web interface.
// Each item runs a forward-only state machine from Pending to a terminal
// Succeeded or Failed state; the coordinator feeds items to one or more
// workflows, enforces the success cap, and collects one outcome record
// per attempted item.
package workflow
