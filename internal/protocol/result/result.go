// Package result defines the flat result-code taxonomy returned to callers
// in every response.
//
// A result code is a single 32-bit word: the low 9 bits identify the
// originating module, the next 13 bits carry a module-specific description.
// Success is the single all-zero value; there are no partial-success states.
// Callers must check the code before consuming any output field of a
// response.
package result

import "fmt"

// Code is a packed module+description result word, laid out exactly as it
// appears on the wire (first word of every response).
type Code uint32

// Module identifies the subsystem a failure originated from.
type Module uint32

const (
	// ModuleNone is the module of the Success code.
	ModuleNone Module = 0

	// ModuleFS is the filesystem service module.
	ModuleFS Module = 2

	moduleBits = 9
	moduleMask = (1 << moduleBits) - 1
)

// New packs a module and description into a result code.
func New(module Module, description uint32) Code {
	return Code(uint32(module)&moduleMask | description<<moduleBits)
}

// Success is the single no-error value.
const Success Code = 0

// Filesystem module descriptions.
const (
	descPathNotFound      = 1
	descPathAlreadyExists = 2
	descNotImplemented    = 3001
	descOutOfRange        = 3005
	descInvalidOffset     = 6061
	descInvalidLength     = 6062
)

var (
	// PathNotFound reports a name argument that does not resolve to an entry.
	PathNotFound = New(ModuleFS, descPathNotFound)

	// PathAlreadyExists reports a create colliding with an existing entry.
	PathAlreadyExists = New(ModuleFS, descPathAlreadyExists)

	// NotImplemented is the uniform outcome for command ids that are
	// unmapped or mapped without a handler. It is a reportable result,
	// not a dispatcher fault.
	NotImplemented = New(ModuleFS, descNotImplemented)

	// OutOfRange reports an access past the end of a storage backend.
	OutOfRange = New(ModuleFS, descOutOfRange)

	// InvalidOffset reports a negative byte offset argument. Checked before
	// any backend call.
	InvalidOffset = New(ModuleFS, descInvalidOffset)

	// InvalidLength reports a negative byte length argument. Checked before
	// any backend call.
	InvalidLength = New(ModuleFS, descInvalidLength)
)

// Unavailable is the generic failure for a required backend that could not
// be resolved, e.g. the lazily opened current-process data storage.
const Unavailable Code = 0xFFFFFFFF

// Module extracts the module field.
func (c Code) Module() Module {
	if c == Unavailable {
		return ModuleNone
	}
	return Module(uint32(c) & moduleMask)
}

// Description extracts the module-specific description field.
func (c Code) Description() uint32 {
	return uint32(c) >> moduleBits
}

// IsSuccess reports whether the code is the single no-error value.
func (c Code) IsSuccess() bool {
	return c == Success
}

// IsFailure reports whether the code is any non-success value.
func (c Code) IsFailure() bool {
	return c != Success
}

// String renders the code in the conventional module-description form,
// e.g. "2-6062", or "Success" / "Unavailable" for the two special values.
func (c Code) String() string {
	switch c {
	case Success:
		return "Success"
	case Unavailable:
		return "Unavailable"
	}
	return fmt.Sprintf("%d-%d", c.Module(), c.Description())
}
