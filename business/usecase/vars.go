package usecase

import (
	"github.com/forest33/framescope/business/entity"
)

type configHandler interface {
	GetPath() string
	AddObserver(func(interface{})) error
}

// tracer is implemented by decoders that can log their own view of a frame.
type tracer interface {
	SetTracing(enabled bool)
}

const subscriberBufferSize = 256

func setTracing(decoder entity.PacketDecoder, enabled bool) bool {
	t, ok := decoder.(tracer)
	if ok {
		t.SetTracing(enabled)
	}
	return ok
}
