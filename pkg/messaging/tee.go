package messaging

import (
	"github.com/ChuLiYu/async-queue/pkg/asyncq"
)

// TeeWriter forwards each message to every child writer, e.g. console plus
// a rotating file.
type TeeWriter = asyncq.TeeConsumer[Message]

// NewTeeWriter creates a tee over the given writers.
func NewTeeWriter(writers ...asyncq.Consumer[Message]) *TeeWriter {
	return asyncq.NewTeeConsumer(writers...)
}
