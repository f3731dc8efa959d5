// Command pg_jwt_validator builds the server-loadable OAuth validator library.
//
// Build with -buildmode=c-shared against the server headers reported by
// pg_config --includedir-server; see the Makefile in this directory.
package main

/*
#cgo darwin LDFLAGS: -undefined dynamic_lookup
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>
#include "module.h"
*/
import "C"

import (
	"errors"
	"unsafe"

	"go.uber.org/zap/zapcore"

	"github.com/MrEthical07/pgjwt"
	"github.com/MrEthical07/pgjwt/internal/host"
)

var errOutOfMemory = errors.New("palloc: out of memory")

var module = host.NewModule(emit, nil)

// pallocAllocator copies identities into the current memory context so the server can free them.
type pallocAllocator struct{}

func (pallocAllocator) Strdup(s string) (unsafe.Pointer, error) {
	p := C.pgjwt_pnstrdup((*C.char)(unsafe.Pointer(unsafe.StringData(s))), C.size_t(len(s)))
	if p == nil {
		return nil, errOutOfMemory
	}
	return unsafe.Pointer(p), nil
}

func emit(level zapcore.Level, line string) {
	msg := C.CString(line)
	defer C.free(unsafe.Pointer(msg))
	C.pgjwt_log(C.int(host.Severity(level)), msg)
}

//export pgjwtStartup
func pgjwtStartup(value *C.char, n C.size_t) C.uintptr_t {
	var hostSecret []byte
	if value != nil && n > 0 {
		hostSecret = C.GoBytes(unsafe.Pointer(value), C.int(n))
	}
	return C.uintptr_t(module.Startup(hostSecret))
}

//export pgjwtShutdown
func pgjwtShutdown(h C.uintptr_t) {
	module.Shutdown(pgjwt.StateHandle(h))
}

// pgjwtValidate reports false only for internal faults. Denials return true with authorized
// left false.
//
//export pgjwtValidate
func pgjwtValidate(h C.uintptr_t, token, role *C.char, authorized *C.bool, authnID **C.char) C.bool {
	var tok, r string
	if token != nil {
		tok = C.GoString(token)
	}
	if role != nil {
		r = C.GoString(role)
	}

	res, err := module.Validate(pgjwt.StateHandle(h), tok, r, pallocAllocator{})
	if err != nil {
		return C.bool(false)
	}
	if res.Authorized {
		*authorized = C.bool(true)
		*authnID = (*C.char)(res.Identity)
	}
	return C.bool(true)
}

func main() {}
