package monitor

// HandlerFunc observes one event. It runs on the run loop goroutine and must
// return quickly.
type HandlerFunc func(Event)

type handler struct {
	types CategorySet
	fn    HandlerFunc
}

// handlers is the ordered registry. It is appended to before Start and only
// read afterwards.
type handlers []handler

func (hs handlers) categories() CategorySet {
	var s CategorySet
	for _, h := range hs {
		s = s.Union(h.types)
	}
	return s
}

func (hs handlers) dispatch(e Event) {
	t := e.Type()
	for _, h := range hs {
		if h.types.Contains(t) {
			h.fn(e)
		}
	}
}
