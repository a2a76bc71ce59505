package state

import "testing"

func TestTabKeyConstructorsAndAccessors(t *testing.T) {
	sk := SessionKey{ConnID: "c1", Database: "d1", Collection: "coll"}
	dk := DatabaseKey{ConnID: "c1", Database: "d1"}

	colTab := TabCollection(sk)
	if got, ok := colTab.Session(); !ok || got != sk {
		t.Fatalf("Session() = %v, %v; want %v, true", got, ok, sk)
	}
	if _, ok := colTab.Database(); ok {
		t.Fatalf("Database() should not match a collection tab")
	}

	dbTab := TabDatabase(dk)
	if got, ok := dbTab.Database(); !ok || got != dk {
		t.Fatalf("Database() = %v, %v; want %v, true", got, ok, dk)
	}

	xferTab := TabTransfer("job1")
	if got, ok := xferTab.TransferID(); !ok || got != "job1" {
		t.Fatalf("TransferID() = %v, %v; want job1, true", got, ok)
	}

	shellTab := TabShell("sh1")
	if got, ok := shellTab.ShellID(); !ok || got != "sh1" {
		t.Fatalf("ShellID() = %v, %v; want sh1, true", got, ok)
	}
}

func TestTabKeyEqual(t *testing.T) {
	sk1 := SessionKey{ConnID: "c1", Database: "d1", Collection: "coll"}
	sk2 := SessionKey{ConnID: "c1", Database: "d1", Collection: "coll2"}

	a := TabCollection(sk1)
	b := TabCollection(sk1)
	c := TabCollection(sk2)
	d := TabDatabase(DatabaseKey{ConnID: "c1", Database: "d1"})

	if !a.Equal(b) {
		t.Fatalf("expected equal tabs for identical session keys")
	}
	if a.Equal(c) {
		t.Fatalf("expected unequal tabs for differing collections")
	}
	if a.Equal(d) {
		t.Fatalf("expected unequal tabs across kinds")
	}
}
