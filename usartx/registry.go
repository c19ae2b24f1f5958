package usartx

// Instance identifies one of the three USART peripherals.
type Instance uint8

const (
	InstanceUSART1 Instance = iota
	InstanceUSART2
	InstanceUSART6

	instanceCount
)

func (i Instance) String() string {
	switch i {
	case InstanceUSART1:
		return "USART1"
	case InstanceUSART2:
		return "USART2"
	case InstanceUSART6:
		return "USART6"
	default:
		return "USART?"
	}
}

// Callback is invoked from interrupt context when the registered condition
// bit is observed in SR. It must not block and must not start a transfer on
// the same instance.
type Callback interface {
	Invoke()
}

// CallbackFunc adapts a plain function to Callback.
type CallbackFunc func()

func (f CallbackFunc) Invoke() { f() }

type entry struct {
	usart *USART
	cb    Callback
	cond  Condition
}

// registry is the per-instance table consulted by Dispatch.
var registry [instanceCount]entry

// instanceOf matches a register block against the fixed peripherals.
func instanceOf(bus *Regs) (Instance, bool) {
	switch bus {
	case busUSART1:
		return InstanceUSART1, true
	case busUSART2:
		return InstanceUSART2, true
	case busUSART6:
		return InstanceUSART6, true
	}
	return 0, false
}

// Lookup returns the descriptor registered for id by Initialize, or nil.
func Lookup(id Instance) *USART {
	if id >= instanceCount {
		return nil
	}
	return registry[id].usart
}

// RegisterCallback installs cb for the instance of u, replacing any earlier
// entry. cb fires during dispatch when cond is set in SR. Register before
// enabling transfers; the table is read from interrupt context.
func (u *USART) RegisterCallback(cond Condition, cb Callback) Status {
	if u == nil || u.Bus == nil || !cond.valid() {
		return StatusError
	}
	id, ok := instanceOf(u.Bus)
	if !ok {
		return StatusError
	}
	e := &registry[id]
	e.cb = cb
	e.cond = cond
	logDebug(ComponentRegistry, "callback registered", "instance", id.String(), "condition", uint8(cond))
	return StatusOK
}

// fire runs the callback when its condition bit is set in sr.
func (e *entry) fire(sr uint32) {
	if e.cb != nil && sr&e.cond.mask() != 0 {
		e.cb.Invoke()
	}
}
