// Package fsp implements the filesystem service sessions and their command
// dispatch.
//
// A session is a stateful service endpoint owning one command table and, for
// every variant except the root Proxy, exactly one backend handle. Dispatch
// is synchronous: one request produces exactly one response before the next
// request to the same session is considered. Handle-returning operations
// create a child session and transfer its ownership entirely to the
// response; the parent keeps no reference.
package fsp

import (
	"context"
	"fmt"
	"time"

	"github.com/nxemu/fspsrv/internal/logger"
	"github.com/nxemu/fspsrv/internal/protocol/ipc"
	"github.com/nxemu/fspsrv/internal/protocol/result"
	"github.com/nxemu/fspsrv/pkg/metrics"
)

// ============================================================================
// Command Tables
// ============================================================================

// Handler processes one request against one session.
//
// Handlers return (*ipc.Response, error) where the response carries
// protocol-level outcomes (including failures as result codes) and the
// error is reserved for system-level faults such as a malformed parameter
// area. Each handler owns validation of its own arguments; the dispatcher
// performs none.
type Handler func(ctx context.Context, req *ipc.Request) (*ipc.Response, error)

// Command is one entry of a command table. "Known but unimplemented" is an
// explicit state, not a nil function pointer: tables stay total and every
// numbered command keeps its name for logging.
type Command struct {
	Name        string
	Handler     Handler
	Implemented bool
}

// Implemented binds a handler to a named command.
func Implemented(name string, h Handler) Command {
	return Command{Name: name, Handler: h, Implemented: true}
}

// Stub registers a named command without a handler. Dispatching it yields
// the uniform NotImplemented outcome.
func Stub(name string) Command {
	return Command{Name: name}
}

// CommandTable is the ordered id→command mapping of one interface type.
// It is immutable once built; at most one entry exists per id.
type CommandTable struct {
	iface    string
	commands map[uint32]Command
}

// NewCommandTable builds the table for one interface type.
func NewCommandTable(iface string, commands map[uint32]Command) *CommandTable {
	return &CommandTable{iface: iface, commands: commands}
}

// Interface returns the interface type name the table belongs to.
func (t *CommandTable) Interface() string {
	return t.iface
}

// Lookup resolves a command id by exact match.
func (t *CommandTable) Lookup(id uint32) (Command, bool) {
	cmd, ok := t.commands[id]
	return cmd, ok
}

// ============================================================================
// Session Model
// ============================================================================

// Session is a dispatchable service endpoint. Every session satisfies
// ipc.Object so it can be transferred to the caller in a response.
type Session interface {
	ipc.Object

	// Commands returns the session's command table.
	Commands() *CommandTable
}

// ============================================================================
// Dispatcher
// ============================================================================

// Dispatcher routes requests to session handlers and finalizes responses.
// It is stateless and safe for concurrent use across independent sessions;
// per-session serialization is the transport's responsibility.
type Dispatcher struct {
	metrics metrics.DispatchMetrics
}

// NewDispatcher returns a dispatcher. Metrics are recorded only when the
// metrics registry has been initialized.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{metrics: metrics.NewDispatchMetrics()}
}

// NewDispatcherWithMetrics returns a dispatcher recording to the given
// metrics sink. A nil sink disables recording.
func NewDispatcherWithMetrics(m metrics.DispatchMetrics) *Dispatcher {
	return &Dispatcher{metrics: m}
}

// Dispatch resolves the request's command id in the session's command table
// and invokes the bound handler. An unmapped id or a stub entry produces a
// NotImplemented response carrying no outputs; that is a normal, reportable
// outcome, not a dispatcher fault. Exactly one handler runs per request and
// exactly one response is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, s Session, req *ipc.Request) (*ipc.Response, error) {
	table := s.Commands()
	start := time.Now()

	cmd, ok := table.Lookup(req.CommandID)
	name := cmd.Name
	if !ok {
		name = "?"
	}

	lc := logger.NewLogContext(table.Interface()).WithCommand(name, req.CommandID)
	ctx = logger.WithContext(ctx, lc)

	if !ok || !cmd.Implemented {
		logger.WarnCtx(ctx, "unimplemented command", logger.CommandID(req.CommandID))
		metrics.ObserveDispatch(d.metrics, table.Interface(), name,
			time.Since(start), result.NotImplemented.String())
		return ipc.Failure(result.NotImplemented), nil
	}

	resp, err := cmd.Handler(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", table.Interface(), cmd.Name, err)
	}

	metrics.ObserveDispatch(d.metrics, table.Interface(), cmd.Name,
		time.Since(start), resp.Result.String())
	if resp.ReadBytes > 0 {
		metrics.ObserveBytes(d.metrics, table.Interface(), "read", resp.ReadBytes)
	}
	if resp.WrittenBytes > 0 {
		metrics.ObserveBytes(d.metrics, table.Interface(), "write", resp.WrittenBytes)
	}
	logger.DebugCtx(ctx, "dispatched",
		logger.Result(resp.Result),
		logger.DurationMs(logger.Duration(start)))

	return resp, nil
}
