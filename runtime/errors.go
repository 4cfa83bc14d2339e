package runtime

import "fmt"

// ErrorCode is a stable negative error code returned across the device
// runtime boundary (spec.md §7, §6 "Device runtime operations").
type ErrorCode int32

const (
	ErrCodeSuccess ErrorCode = 0

	ErrCodeGenericError                 ErrorCode = -1
	ErrCodeInternalError                ErrorCode = -2
	ErrCodeDeviceBufferCopyFailed        ErrorCode = -3
	ErrCodeIncompatibleDeviceInterface   ErrorCode = -4
	ErrCodeOutOfMemory                  ErrorCode = -5
	ErrCodeKernelNotCompiled             ErrorCode = -6
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeSuccess:
		return "success"
	case ErrCodeGenericError:
		return "generic_error"
	case ErrCodeInternalError:
		return "internal_error"
	case ErrCodeDeviceBufferCopyFailed:
		return "device_buffer_copy_failed"
	case ErrCodeIncompatibleDeviceInterface:
		return "incompatible_device_interface"
	case ErrCodeOutOfMemory:
		return "out_of_memory"
	case ErrCodeKernelNotCompiled:
		return "kernel_not_compiled"
	default:
		return fmt.Sprintf("error_code(%d)", int32(c))
	}
}

// DeviceError is a device-error-kind failure (spec.md §7 kind 3): a runtime
// API call returned a non-success code. Op and Operand name the failing
// call and the operand that failed a predicate, so the message is
// actionable without a debugger attached.
type DeviceError struct {
	Code    ErrorCode
	Op      string
	Operand string
}

func (e *DeviceError) Error() string {
	if e.Operand == "" {
		return fmt.Sprintf("runtime: %s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("runtime: %s: %s (%s)", e.Op, e.Code, e.Operand)
}

func newDeviceError(op, operand string, code ErrorCode) *DeviceError {
	return &DeviceError{Code: code, Op: op, Operand: operand}
}

// ErrOutOfMemory is returned by Allocator.Reserve when the backing device
// has no space for a request (spec.md §7 kind 4). No retry is attempted.
var ErrOutOfMemory = &DeviceError{Code: ErrCodeOutOfMemory, Op: "Allocator.Reserve"}

// ErrKernelNotCompiled is returned when Run or Finalize names a kernel
// entry point that was never compiled into the cache (spec.md §7 kind 5).
var ErrKernelNotCompiled = &DeviceError{Code: ErrCodeKernelNotCompiled, Op: "Cache.Lookup"}
