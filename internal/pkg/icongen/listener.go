package icongen

// Listener receives the generator's lifecycle events. Calls happen outside
// the generator's state lock, so implementations may read from it (FileName,
// OutputData, DrawSize). Starting another operation (LoadFile, Render,
// SwitchFrame, Exit) from a callback deadlocks: operations and their
// callbacks run one at a time, and OutputData inside OnRendered always sees
// the canvas that render produced.
type Listener interface {
	OnReadFile(f File)
	OnFileTypeError(f File)
	OnDecodeError(err error)
	OnRender()
	OnRenderError(err error)
	OnRendered(info DrawInfo)
	OnExit()
}

// NopListener ignores every event. Embed it to implement only some methods.
type NopListener struct{}

func (NopListener) OnReadFile(File)      {}
func (NopListener) OnFileTypeError(File) {}
func (NopListener) OnDecodeError(error)  {}
func (NopListener) OnRender()            {}
func (NopListener) OnRenderError(error)  {}
func (NopListener) OnRendered(DrawInfo)  {}
func (NopListener) OnExit()              {}

// ListenerFuncs adapts optional callbacks to a Listener. Nil fields are skipped.
type ListenerFuncs struct {
	ReadFile      func(f File)
	FileTypeError func(f File)
	DecodeError   func(err error)
	Render        func()
	RenderError   func(err error)
	Rendered      func(info DrawInfo)
	Exit          func()
}

func (l ListenerFuncs) OnReadFile(f File) {
	if l.ReadFile != nil {
		l.ReadFile(f)
	}
}

func (l ListenerFuncs) OnFileTypeError(f File) {
	if l.FileTypeError != nil {
		l.FileTypeError(f)
	}
}

func (l ListenerFuncs) OnDecodeError(err error) {
	if l.DecodeError != nil {
		l.DecodeError(err)
	}
}

func (l ListenerFuncs) OnRender() {
	if l.Render != nil {
		l.Render()
	}
}

func (l ListenerFuncs) OnRenderError(err error) {
	if l.RenderError != nil {
		l.RenderError(err)
	}
}

func (l ListenerFuncs) OnRendered(info DrawInfo) {
	if l.Rendered != nil {
		l.Rendered(info)
	}
}

func (l ListenerFuncs) OnExit() {
	if l.Exit != nil {
		l.Exit()
	}
}

// Listeners fans every event out to each listener in order.
type Listeners []Listener

func (ls Listeners) OnReadFile(f File) {
	for _, l := range ls {
		l.OnReadFile(f)
	}
}

func (ls Listeners) OnFileTypeError(f File) {
	for _, l := range ls {
		l.OnFileTypeError(f)
	}
}

func (ls Listeners) OnDecodeError(err error) {
	for _, l := range ls {
		l.OnDecodeError(err)
	}
}

func (ls Listeners) OnRender() {
	for _, l := range ls {
		l.OnRender()
	}
}

func (ls Listeners) OnRenderError(err error) {
	for _, l := range ls {
		l.OnRenderError(err)
	}
}

func (ls Listeners) OnRendered(info DrawInfo) {
	for _, l := range ls {
		l.OnRendered(info)
	}
}

func (ls Listeners) OnExit() {
	for _, l := range ls {
		l.OnExit()
	}
}

// events defers listener calls until the generator lock is released.
type events []func()

func (e *events) add(fn func()) {
	*e = append(*e, fn)
}

func (e events) flush() {
	for _, fn := range e {
		fn()
	}
}
