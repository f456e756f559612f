// Command battito-max is the shared library loaded by the Max external.
//
//	go build -buildmode=c-shared -o libbattito.so ./cmd/battito-max
//
// It exports
//
//	struct pattern transform(char* input, uint32_t subdivision);
//	void battito_free(struct pattern p);
//
// where events holds length*subdivision slots, one per tick. A subdivision
// above 1<<24 returns length 0 and no events.
package main

/*
#include <stdint.h>
#include <stdlib.h>

struct event {
  uint32_t value;
  uint8_t probability;
};

struct pattern {
  struct event* events;
  uint32_t length;
};
*/
import "C"

import (
	"unsafe"
)

//export transform
func transform(input *C.char, subdivision C.uint32_t) C.struct_pattern {
	slots, length := denseSlots(C.GoString(input), uint32(subdivision))

	events := (*C.struct_event)(C.malloc(C.size_t(len(slots)) * C.size_t(unsafe.Sizeof(C.struct_event{}))))
	if events == nil {
		return C.struct_pattern{}
	}
	out := unsafe.Slice(events, len(slots))
	for i, s := range slots {
		out[i].value = C.uint32_t(s.Value)
		out[i].probability = C.uint8_t(s.Probability)
	}
	return C.struct_pattern{events: events, length: C.uint32_t(length)}
}

//export battito_free
func battito_free(p C.struct_pattern) {
	if p.events != nil {
		C.free(unsafe.Pointer(p.events))
	}
}

func main() {}
