package workerpool

// Kind tags a Message travelling between the coordinator and its workers.
type Kind int

const (
	// KindData carries a work item or a result.
	KindData Kind = iota

	// KindStop tells one worker that no more input will follow.
	KindStop

	// KindDone reports that one worker has finished and sent all its results.
	KindDone

	// KindError carries a failure raised while a worker processed an item.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindStop:
		return "stop"
	case KindDone:
		return "done"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Message is the unit exchanged over the work and result queues.
// Messages are told apart by Kind only; Value is never compared, so payloads
// may be slices, maps or other values that do not support ==.
type Message[T any] struct {
	Kind     Kind
	Value    T
	WorkerID int
	Err      error
}

// Data wraps a payload.
func Data[T any](value T) Message[T] {
	return Message[T]{Kind: KindData, Value: value}
}

// Stop builds a stop signal.
func Stop[T any]() Message[T] {
	return Message[T]{Kind: KindStop}
}

// Done builds the completion signal for a worker.
func Done[T any](workerID int) Message[T] {
	return Message[T]{Kind: KindDone, WorkerID: workerID}
}

// Fail builds an error report for a worker.
func Fail[T any](workerID int, err error) Message[T] {
	return Message[T]{Kind: KindError, WorkerID: workerID, Err: err}
}
