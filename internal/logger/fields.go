package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so dispatch logs can
// be aggregated and queried by interface, command, and result.
const (
	// ========================================================================
	// Dispatch
	// ========================================================================
	KeyInterface = "interface"  // Target session interface (Proxy, FileSession, ...)
	KeyCommand   = "command"    // Command name (Read, OpenFile, MountSdCard, ...)
	KeyCommandID = "command_id" // Numeric command id from the request
	KeyResult    = "result"     // Result code returned to the caller
	KeyClient    = "client"     // Requesting client identifier

	// ========================================================================
	// Filesystem Operations
	// ========================================================================
	KeyName = "name" // File or directory name argument
	KeySize = "size" // Size in bytes
	KeyMode = "mode" // Open/create mode flags

	// ========================================================================
	// I/O Operations
	// ========================================================================
	KeyOffset       = "offset"        // Byte offset for read/write operations
	KeyLength       = "length"        // Byte length requested
	KeyBytesRead    = "bytes_read"    // Actual bytes read
	KeyBytesWritten = "bytes_written" // Actual bytes written
	KeyEntries      = "entries"       // Number of directory entries
	KeyMaxEntries   = "max_entries"   // Maximum entries that fit the output buffer

	// ========================================================================
	// Mounts
	// ========================================================================
	KeyMount = "mount" // Mount kind (sdcard, savedata, romfs)

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// Interface returns a slog.Attr for the target session interface name
func Interface(name string) slog.Attr {
	return slog.String(KeyInterface, name)
}

// Command returns a slog.Attr for the command name
func Command(name string) slog.Attr {
	return slog.String(KeyCommand, name)
}

// CommandID returns a slog.Attr for the numeric command id
func CommandID(id uint32) slog.Attr {
	return slog.Any(KeyCommandID, id)
}

// Result returns a slog.Attr for a result code, rendered by its String form
func Result(code fmt.Stringer) slog.Attr {
	return slog.String(KeyResult, code.String())
}

// Client returns a slog.Attr for the requesting client identifier
func Client(id string) slog.Attr {
	return slog.String(KeyClient, id)
}

// Name returns a slog.Attr for a file/directory name argument
func Name(n string) slog.Attr {
	return slog.String(KeyName, n)
}

// Size returns a slog.Attr for a size in bytes
func Size(s uint64) slog.Attr {
	return slog.Uint64(KeySize, s)
}

// Mode returns a slog.Attr for open/create mode flags
func Mode(m uint64) slog.Attr {
	return slog.String(KeyMode, fmt.Sprintf("0x%X", m))
}

// Offset returns a slog.Attr for a byte offset
func Offset(off int64) slog.Attr {
	return slog.Int64(KeyOffset, off)
}

// Length returns a slog.Attr for a byte length
func Length(l int64) slog.Attr {
	return slog.Int64(KeyLength, l)
}

// BytesRead returns a slog.Attr for actual bytes read
func BytesRead(n uint64) slog.Attr {
	return slog.Uint64(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for actual bytes written
func BytesWritten(n uint64) slog.Attr {
	return slog.Uint64(KeyBytesWritten, n)
}

// Entries returns a slog.Attr for a number of directory entries
func Entries(n uint64) slog.Attr {
	return slog.Uint64(KeyEntries, n)
}

// MaxEntries returns a slog.Attr for the entry capacity of an output buffer
func MaxEntries(n uint64) slog.Attr {
	return slog.Uint64(KeyMaxEntries, n)
}

// Mount returns a slog.Attr for a mount kind
func Mount(kind string) slog.Attr {
	return slog.String(KeyMount, kind)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
