package client

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGateDecisions(t *testing.T) {
	store := testStore(t)

	// Logged out: everything redirects to login.
	decision, target := store.Gate("admin")
	if decision != RedirectLogin || target != "/login" {
		t.Fatalf("expected login redirect, got %v %q", decision, target)
	}

	if err := store.Replace(Session{
		AccessToken: "tok",
		User:        &SessionUser{ID: "u1", Role: "employee"},
	}); err != nil {
		t.Fatal(err)
	}

	// Right role passes.
	if decision, _ := store.Gate("employee"); decision != Allow {
		t.Errorf("expected Allow for matching role, got %v", decision)
	}
	// No role requirement passes for any authenticated user.
	if decision, _ := store.Gate(); decision != Allow {
		t.Errorf("expected Allow with no required roles, got %v", decision)
	}
	// Wrong role is sent home, not to login.
	decision, target = store.Gate("admin", "manager")
	if decision != RedirectHome || target != "/" {
		t.Errorf("expected home redirect, got %v %q", decision, target)
	}

	// Super admins land on their own console.
	if err := store.Replace(Session{
		AccessToken: "tok",
		User:        &SessionUser{ID: "u2", Role: "super_admin"},
	}); err != nil {
		t.Fatal(err)
	}
	decision, target = store.Gate("admin")
	if decision != RedirectHome || target != "/superadmin" {
		t.Errorf("expected superadmin redirect, got %v %q", decision, target)
	}
}

func TestSessionPersistsAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewSessionStore(path)
	if err != nil {
		t.Fatal(err)
	}

	err = store.Replace(Session{
		AccessToken:  "tok",
		RefreshToken: "ref",
		User:         &SessionUser{ID: "u1", Role: "admin", CompanyID: "c1"},
		ActiveLocation: &ActiveLocation{
			SessionID: "loc1",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSessionStore(path)
	if err != nil {
		t.Fatal(err)
	}
	session := reopened.Current()
	if session == nil || session.AccessToken != "tok" || session.User.Role != "admin" {
		t.Fatalf("session did not survive reopen: %+v", session)
	}
	if session.ActiveLocation == nil || session.ActiveLocation.SessionID != "loc1" {
		t.Errorf("active location marker lost: %+v", session.ActiveLocation)
	}
}

func TestClearRemovesSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewSessionStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Replace(Session{AccessToken: "tok"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if store.Current() != nil {
		t.Error("expected nil session after clear")
	}

	reopened, err := NewSessionStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Current() != nil {
		t.Error("cleared session must not resurrect from disk")
	}
}

func TestUpdateMutatesCopyAtomically(t *testing.T) {
	store := testStore(t)
	if err := store.Replace(Session{AccessToken: "tok", FailedImports: nil}); err != nil {
		t.Fatal(err)
	}

	snapshot := store.Current()
	if err := store.Update(func(s *Session) {
		s.AccessToken = "tok2"
	}); err != nil {
		t.Fatal(err)
	}

	if snapshot.AccessToken != "tok" {
		t.Error("a snapshot taken before Update must not change")
	}
	if store.Current().AccessToken != "tok2" {
		t.Error("update was not applied")
	}
}

func TestCorruptSessionFileStartsLoggedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	store, err := NewSessionStore(path)
	if err != nil {
		t.Fatalf("corrupt file must not fail store creation: %v", err)
	}
	if store.Current() != nil {
		t.Error("corrupt session must read as logged out")
	}
}
