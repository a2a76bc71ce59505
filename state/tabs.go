package state

// TabKindTag discriminates a TabKey's variant.
type TabKindTag int

const (
	TabCollectionKind TabKindTag = iota
	TabDatabaseKind
	TabTransferKind
	TabShellKind
)

// TabKey is a closed sum type identifying one open workspace tab: a
// collection session, a database overview, a transfer job, or a shell
// session. Built via the Tab* constructors; never construct the zero value
// directly.
type TabKey struct {
	kind      TabKindTag
	session   SessionKey
	database  DatabaseKey
	transfer  string
	shell     string
}

func TabCollection(key SessionKey) TabKey { return TabKey{kind: TabCollectionKind, session: key} }
func TabDatabase(key DatabaseKey) TabKey  { return TabKey{kind: TabDatabaseKind, database: key} }
func TabTransfer(id string) TabKey        { return TabKey{kind: TabTransferKind, transfer: id} }
func TabShell(id string) TabKey           { return TabKey{kind: TabShellKind, shell: id} }

func (k TabKey) Kind() TabKindTag { return k.kind }

// Session returns the session key for a TabCollection tab; ok is false for
// any other kind.
func (k TabKey) Session() (SessionKey, bool) {
	return k.session, k.kind == TabCollectionKind
}

// Database returns the database key for a TabDatabase tab.
func (k TabKey) Database() (DatabaseKey, bool) {
	return k.database, k.kind == TabDatabaseKind
}

// TransferID returns the transfer tab id for a TabTransfer tab.
func (k TabKey) TransferID() (string, bool) {
	return k.transfer, k.kind == TabTransferKind
}

// ShellID returns the shell tab id for a TabShell tab.
func (k TabKey) ShellID() (string, bool) {
	return k.shell, k.kind == TabShellKind
}

// Equal reports whether two tab keys name the same tab.
func (k TabKey) Equal(other TabKey) bool {
	if k.kind != other.kind {
		return false
	}
	switch k.kind {
	case TabCollectionKind:
		return k.session == other.session
	case TabDatabaseKind:
		return k.database == other.database
	case TabTransferKind:
		return k.transfer == other.transfer
	case TabShellKind:
		return k.shell == other.shell
	}
	return false
}
