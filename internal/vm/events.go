package vm

import "github.com/gmlscript/gmlscript/internal/symbol"

// Event type names every object event is keyed under (FuncKey.EventType).
// EventKind distinguishes same-type sub-events (GameMaker's begin/normal/end
// step, alarm index, and so on); ordinary events use KindDefault.
const KindDefault = 0

// EventNames interns the four event-type symbols the driver dispatches by
// name, so callers building a Program don't have to re-intern them.
type EventNames struct {
	Create, Destroy, Step, Draw symbol.Symbol
}

// InternEventNames interns the reserved event-type names against in.
func InternEventNames(in *symbol.Interner) EventNames {
	return EventNames{
		Create:  in.Intern("create"),
		Destroy: in.Intern("destroy"),
		Step:    in.Intern("step"),
		Draw:    in.Intern("draw"),
	}
}
