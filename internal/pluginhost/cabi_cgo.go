//go:build cgo

package pluginhost

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>
#include <stdint.h>

typedef void*    (*rt_construct_fn)(void);
typedef void     (*rt_destroy_fn)(void*);
typedef void     (*rt_set_input_fn)(void*, const char*, size_t, double);
typedef void     (*rt_set_input_by_index_fn)(void*, int64_t, double);
typedef double   (*rt_get_output_fn)(void*, const char*, size_t);
typedef double   (*rt_get_output_by_index_fn)(void*, int64_t);
typedef void     (*rt_process_fn)(void*, uint64_t, double);
typedef const char* (*rt_json_fn)(void*, size_t*);
typedef void     (*rt_set_config_fn)(void*, const char*, size_t, double, int64_t);

static void* rt_call_construct(rt_construct_fn fn) { return fn(); }
static void  rt_call_destroy(rt_destroy_fn fn, void* h) { fn(h); }
static void  rt_call_set_input(rt_set_input_fn fn, void* h, const char* name, size_t len, double v) { fn(h, name, len, v); }
static void  rt_call_set_input_by_index(rt_set_input_by_index_fn fn, void* h, int64_t idx, double v) { fn(h, idx, v); }
static double rt_call_get_output(rt_get_output_fn fn, void* h, const char* name, size_t len) { return fn(h, name, len); }
static double rt_call_get_output_by_index(rt_get_output_by_index_fn fn, void* h, int64_t idx) { return fn(h, idx); }
static void  rt_call_process(rt_process_fn fn, void* h, uint64_t tick, double period) { fn(h, tick, period); }
static const char* rt_call_json(rt_json_fn fn, void* h, size_t* len) { return fn(h, len); }
static void  rt_call_set_config(rt_set_config_fn fn, void* h, const char* patch, size_t len, double period, int64_t steps) {
	fn(h, patch, len, period, steps);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/rtsyn-dev/rtsyn/pkg/rtplugin"
)

// Symbol names a dynamic plugin library must export. Optional entries
// that resolve to nil fall back to their name-keyed counterpart (the
// *ByIndex entries) or are simply left unused by the loader.
const (
	symConstruct        = "rt_plugin_create"
	symDestroy          = "rt_destroy"
	symSetInput          = "rt_set_input"
	symSetInputByIndex   = "rt_set_input_by_index"
	symGetOutput         = "rt_get_output"
	symGetOutputByIndex  = "rt_get_output_by_index"
	symProcess           = "rt_process"
	symInputsJSON        = "rt_inputs_json"
	symOutputsJSON       = "rt_outputs_json"
	symMetaJSON          = "rt_meta_json"
	symBehaviorJSON      = "rt_behavior_json"
	symDisplaySchemaJSON = "rt_display_schema_json"
	symUISchemaJSON      = "rt_ui_schema_json"
	symSetConfig         = "rt_set_config"
)

// openSharedLibrary dlopen's path, resolves every ABI entry point by
// symbol name, and returns a VTable of Go closures plus the
// constructor. Required symbols that fail to resolve are a load error;
// optional ones are simply left nil, per spec §4.1's fallback rule.
func openSharedLibrary(path string) (rtplugin.VTable, rtplugin.Constructor, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	lib := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_LOCAL)
	if lib == nil {
		return rtplugin.VTable{}, nil, fmt.Errorf("dlopen %s: %s", path, C.GoString(C.dlerror()))
	}

	ctorSym, err := mustSym(lib, symConstruct)
	if err != nil {
		return rtplugin.VTable{}, nil, err
	}
	destroySym, err := mustSym(lib, symDestroy)
	if err != nil {
		return rtplugin.VTable{}, nil, err
	}
	setInputSym, err := mustSym(lib, symSetInput)
	if err != nil {
		return rtplugin.VTable{}, nil, err
	}
	getOutputSym, err := mustSym(lib, symGetOutput)
	if err != nil {
		return rtplugin.VTable{}, nil, err
	}
	processSym, err := mustSym(lib, symProcess)
	if err != nil {
		return rtplugin.VTable{}, nil, err
	}
	inputsJSONSym, err := mustSym(lib, symInputsJSON)
	if err != nil {
		return rtplugin.VTable{}, nil, err
	}
	outputsJSONSym, err := mustSym(lib, symOutputsJSON)
	if err != nil {
		return rtplugin.VTable{}, nil, err
	}
	metaJSONSym, err := mustSym(lib, symMetaJSON)
	if err != nil {
		return rtplugin.VTable{}, nil, err
	}
	setConfigSym, err := mustSym(lib, symSetConfig)
	if err != nil {
		return rtplugin.VTable{}, nil, err
	}

	ctor := func() rtplugin.Handle {
		h := C.rt_call_construct(C.rt_construct_fn(ctorSym))
		return rtplugin.Handle(uintptr(h))
	}

	vt := rtplugin.VTable{
		Destroy: func(h rtplugin.Handle) {
			C.rt_call_destroy(C.rt_destroy_fn(destroySym), cHandle(h))
		},
		SetInput: func(h rtplugin.Handle, name string, value float64) {
			cname := C.CString(name)
			defer C.free(unsafe.Pointer(cname))
			C.rt_call_set_input(C.rt_set_input_fn(setInputSym), cHandle(h), cname, C.size_t(len(name)), C.double(value))
		},
		GetOutput: func(h rtplugin.Handle, name string) float64 {
			cname := C.CString(name)
			defer C.free(unsafe.Pointer(cname))
			return float64(C.rt_call_get_output(C.rt_get_output_fn(getOutputSym), cHandle(h), cname, C.size_t(len(name))))
		},
		Process: func(h rtplugin.Handle, tick uint64, period float64) {
			C.rt_call_process(C.rt_process_fn(processSym), cHandle(h), C.uint64_t(tick), C.double(period))
		},
		InputsJSON:  jsonGetter(inputsJSONSym),
		OutputsJSON: jsonGetter(outputsJSONSym),
		MetaJSON:    jsonGetter(metaJSONSym),
		SetConfig: func(h rtplugin.Handle, patch []byte, period float64, maxSteps int) {
			cpatch := C.CBytes(patch)
			defer C.free(cpatch)
			C.rt_call_set_config(C.rt_set_config_fn(setConfigSym), cHandle(h),
				(*C.char)(cpatch), C.size_t(len(patch)), C.double(period), C.int64_t(maxSteps))
		},
	}

	if sym, err := optionalSym(lib, symSetInputByIndex); err == nil && sym != nil {
		vt.SetInputByIndex = func(h rtplugin.Handle, idx int, value float64) {
			C.rt_call_set_input_by_index(C.rt_set_input_by_index_fn(sym), cHandle(h), C.int64_t(idx), C.double(value))
		}
	}
	if sym, err := optionalSym(lib, symGetOutputByIndex); err == nil && sym != nil {
		vt.GetOutputByIndex = func(h rtplugin.Handle, idx int) float64 {
			return float64(C.rt_call_get_output_by_index(C.rt_get_output_by_index_fn(sym), cHandle(h), C.int64_t(idx)))
		}
	}
	if sym, err := optionalSym(lib, symBehaviorJSON); err == nil && sym != nil {
		vt.BehaviorJSON = jsonGetter(sym)
	}
	if sym, err := optionalSym(lib, symDisplaySchemaJSON); err == nil && sym != nil {
		vt.DisplaySchemaJSON = jsonGetter(sym)
	}
	if sym, err := optionalSym(lib, symUISchemaJSON); err == nil && sym != nil {
		vt.UISchemaJSON = jsonGetter(sym)
	}

	return vt, ctor, nil
}

func cHandle(h rtplugin.Handle) unsafe.Pointer {
	return unsafe.Pointer(uintptr(h))
}

func jsonGetter(sym unsafe.Pointer) func(rtplugin.Handle) []byte {
	return func(h rtplugin.Handle) []byte {
		var n C.size_t
		ptr := C.rt_call_json(C.rt_json_fn(sym), cHandle(h), &n)
		if ptr == nil || n == 0 {
			return nil
		}
		// The plugin owns this buffer; copy before returning per spec §4.1.
		return C.GoBytes(unsafe.Pointer(ptr), C.int(n))
	}
}

func mustSym(lib unsafe.Pointer, name string) (unsafe.Pointer, error) {
	sym, err := optionalSym(lib, name)
	if err != nil {
		return nil, err
	}
	if sym == nil {
		return nil, fmt.Errorf("missing required symbol %q", name)
	}
	return sym, nil
}

func optionalSym(lib unsafe.Pointer, name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	C.dlerror() // clear any pending error
	sym := C.dlsym(lib, cname)
	if sym == nil {
		if msg := C.dlerror(); msg != nil {
			return nil, nil
		}
		return nil, nil
	}
	return sym, nil
}
