package integrity

import (
	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode

func init() {
	var err error
	// Core Deterministic Encoding: sorted map keys, shortest integer and
	// float forms, no indefinite lengths.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("integrity: CBOR encoder initialization failed: " + err.Error())
	}
}

// Marshal returns the deterministic CBOR encoding of v.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}
