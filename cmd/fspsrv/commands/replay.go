package commands

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/nxemu/fspsrv/internal/backend/hostfs"
	"github.com/nxemu/fspsrv/internal/logger"
	"github.com/nxemu/fspsrv/internal/protocol/fsp"
	"github.com/nxemu/fspsrv/internal/protocol/ipc"
	"github.com/nxemu/fspsrv/pkg/config"
	"github.com/nxemu/fspsrv/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay [trace-file]",
	Short: "Replay a command trace against a fresh service instance",
	Long: `Replay reads a command trace and dispatches each line against a fresh
service instance, printing the outcome of every command. It is a debugging
harness, not a transport: no sockets are opened for the service itself.

Trace format, one command per line:

  <session> <command-id> [params=<hex>] [in=<hex>] [out=<capacity>]

Session 0 is the root proxy. Sessions returned by handle-returning commands
are assigned the next free number, printed with the command's outcome, and
addressable by later lines. Blank lines and lines starting with '#' are
skipped.

Example:

  # mount the sdcard, create and read back a file
  0 18
  1 0 params=<hex of mode+size> in=<hex of name>
  1 8 params=<hex of mode> in=<hex of name>
  2 0 params=<hex of offset+length> out=4096`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Metrics must be initialized before the dispatcher picks them up
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		go serveMetrics(cfg.Metrics.Port)
		logger.Info("metrics enabled", "port", cfg.Metrics.Port)
	}

	in := os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open trace: %w", err)
		}
		defer f.Close()
		in = f
	}

	resolver := hostfs.NewResolver(cfg.Mounts.SdCard, cfg.Mounts.SaveData, cfg.Mounts.RomFS)
	r := &replayer{
		dispatcher: fsp.NewDispatcher(),
		sessions:   map[uint64]fsp.Session{0: fsp.NewProxy(resolver)},
		nextRef:    1,
		out:        cmd.OutOrStdout(),
	}
	return r.run(cmd.Context(), in)
}

func serveMetrics(port int) {
	handler := promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
		logger.Error("metrics server stopped", logger.Err(err))
	}
}

// replayer holds the session registry of one replay run.
type replayer struct {
	dispatcher *fsp.Dispatcher
	sessions   map[uint64]fsp.Session
	nextRef    uint64
	out        io.Writer
}

func (r *replayer) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := r.replayLine(ctx, line); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

func (r *replayer) replayLine(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return fmt.Errorf("expected '<session> <command-id> [options]', got %q", line)
	}

	ref, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad session reference %q: %w", fields[0], err)
	}
	session, ok := r.sessions[ref]
	if !ok {
		return fmt.Errorf("unknown session %d", ref)
	}

	commandID, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return fmt.Errorf("bad command id %q: %w", fields[1], err)
	}

	req := &ipc.Request{CommandID: uint32(commandID)}
	for _, opt := range fields[2:] {
		key, value, found := strings.Cut(opt, "=")
		if !found {
			return fmt.Errorf("bad option %q", opt)
		}
		switch key {
		case "params":
			req.Params, err = hex.DecodeString(value)
			if err != nil {
				return fmt.Errorf("bad params hex: %w", err)
			}
		case "in":
			buf, err := hex.DecodeString(value)
			if err != nil {
				return fmt.Errorf("bad input buffer hex: %w", err)
			}
			req.InBuffers = append(req.InBuffers, buf)
		case "out":
			capacity, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return fmt.Errorf("bad output capacity: %w", err)
			}
			req.OutCapacities = append(req.OutCapacities, uint32(capacity))
		default:
			return fmt.Errorf("unknown option %q", key)
		}
	}

	resp, err := r.dispatcher.Dispatch(ctx, session, req)
	if err != nil {
		return err
	}
	defer resp.Release()

	r.printOutcome(ref, session, req, resp)
	return nil
}

// printOutcome reports one dispatched command, registering any transferred
// sessions under fresh references.
func (r *replayer) printOutcome(ref uint64, session fsp.Session, req *ipc.Request, resp *ipc.Response) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "s%d %s[%d] -> %s", ref, session.InterfaceName(), req.CommandID, resp.Result)

	if len(resp.Words) > 0 {
		fmt.Fprintf(&sb, " words=%s", hex.EncodeToString(resp.Words))
	}
	for i, buf := range resp.OutBuffers {
		fmt.Fprintf(&sb, " out%d=%s", i, truncatedHex(buf))
	}
	for _, obj := range resp.Objects {
		child, ok := obj.(fsp.Session)
		if !ok {
			continue
		}
		r.sessions[r.nextRef] = child
		fmt.Fprintf(&sb, " obj=s%d(%s)", r.nextRef, child.InterfaceName())
		r.nextRef++
	}

	fmt.Fprintln(r.out, sb.String())
}

// truncatedHex renders a buffer as hex, eliding the middle of large ones.
func truncatedHex(buf []byte) string {
	const window = 64
	if len(buf) <= 2*window {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("%s..%s(%d bytes)",
		hex.EncodeToString(buf[:window]),
		hex.EncodeToString(buf[len(buf)-window:]),
		len(buf))
}
