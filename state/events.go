package state

// AppEvent is a closed sum type: every concrete event below implements the
// unexported isAppEvent so no type outside this package can add a variant.
// Dispatch is a plain registration/notify list, grounded on the pack's
// observer-table shape (register a callback, notify every registered
// callback on change) but without that pattern's reconciler machinery —
// this store only needs "tell everyone listening that something happened".
type AppEvent interface {
	isAppEvent()
}

type baseEvent struct{}

func (baseEvent) isAppEvent() {}

type Connecting struct {
	baseEvent
	ConnID ConnID
}

type Connected struct {
	baseEvent
	ConnID ConnID
}

type Disconnected struct {
	baseEvent
	ConnID ConnID
}

type ConnectionAdded struct {
	baseEvent
	ConnID ConnID
}

type ConnectionUpdated struct {
	baseEvent
	ConnID ConnID
}

type ConnectionRemoved struct {
	baseEvent
	ConnID ConnID
}

type ConnectionFailed struct {
	baseEvent
	ConnID ConnID
	Err    error
}

type DatabasesLoaded struct {
	baseEvent
	ConnID    ConnID
	Databases []string
}

type DatabasesFailed struct {
	baseEvent
	ConnID ConnID
	Err    error
}

type CollectionsLoaded struct {
	baseEvent
	Database DatabaseKey
}

type CollectionsFailed struct {
	baseEvent
	Database DatabaseKey
	Err      error
}

type DocumentsLoaded struct {
	baseEvent
	Session SessionKey
	Total   int64
}

type DocumentsLoadFailed struct {
	baseEvent
	Session SessionKey
	Err     error
}

type DocumentSaved struct {
	baseEvent
	Session SessionKey
	Key     DocKey
}

type DocumentSaveFailed struct {
	baseEvent
	Session SessionKey
	Key     DocKey
	Err     error
}

type DocumentDeleted struct {
	baseEvent
	Session SessionKey
	Key     DocKey
}

type DocumentDeleteFailed struct {
	baseEvent
	Session SessionKey
	Err     error
}

type DocumentsInserted struct {
	baseEvent
	Session SessionKey
	Count   int
}

type DocumentsUpdateFailed struct {
	baseEvent
	Session SessionKey
	Err     error
}

type IndexesLoaded struct {
	baseEvent
	Session SessionKey
}

type IndexesLoadFailed struct {
	baseEvent
	Session SessionKey
	Err     error
}

type IndexCreated struct {
	baseEvent
	Session SessionKey
	Name    string
}

type IndexCreateFailed struct {
	baseEvent
	Session SessionKey
	Err     error
}

type IndexDropped struct {
	baseEvent
	Session SessionKey
	Name    string
}

type IndexDropFailed struct {
	baseEvent
	Session SessionKey
	Err     error
}

type AggregationCompleted struct {
	baseEvent
	Session SessionKey
}

type AggregationFailed struct {
	baseEvent
	Session SessionKey
	Err     error
}

type ViewChanged struct {
	baseEvent
	Session SessionKey
}

// Observer receives every event emitted by a Store.
type Observer func(AppEvent)

type observerList struct {
	next      int
	observers map[int]Observer
}

func newObserverList() *observerList {
	return &observerList{observers: make(map[int]Observer)}
}

// subscribe registers fn and returns an unsubscribe function. observerList
// has no lock of its own: Store.Subscribe holds the store lock around
// subscribe, and the returned unsubscribe function takes no lock.
func (o *observerList) subscribe(fn Observer) func() {
	id := o.next
	o.next++
	o.observers[id] = fn
	return func() { delete(o.observers, id) }
}

func (o *observerList) notify(ev AppEvent) {
	for _, fn := range o.observers {
		fn(ev)
	}
}
