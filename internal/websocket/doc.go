// Package websocket streams pipeline progress to dashboard clients.
//
// A Hub owns the set of connected clients and runs a single loop that
// registers, unregisters and fans out messages. Pipeline runs publish
// domain.PipelineEvent values through Hub.Publish, which never blocks the
// run: when the broadcast queue is full the event is dropped and counted.
//
// Every message is a JSON envelope:
//
//	{"type": "pipeline:event", "data": {...}, "timestamp": "...", "trace_id": "..."}
package websocket
