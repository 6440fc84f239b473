package client

import (
	"testing"

	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

func guestEntry(draftID uuid.UUID) Entry {
	return Entry{
		DraftID:         draftID,
		OwnerKind:       enums.OwnerKindGuest,
		GuestCredential: "credential-plaintext",
	}
}

func accountEntry(draftID, accountID uuid.UUID) Entry {
	return Entry{
		DraftID:   draftID,
		OwnerKind: enums.OwnerKindAccount,
		AccountID: &accountID,
	}
}

func TestGuardLoadGuestEntryForAnySession(t *testing.T) {
	t.Parallel()

	guard := NewGuard(NewMemoryStore())
	draftID := uuid.New()
	guard.Save(guestEntry(draftID))

	if entry, ok := guard.Load(Session{}); !ok || entry.DraftID != draftID {
		t.Fatalf("guest entry should load for anonymous session, got ok=%v", ok)
	}

	accountID := uuid.New()
	if _, ok := guard.Load(Session{AccountID: &accountID}); !ok {
		t.Fatal("guest entry should load for signed-in session too")
	}
}

func TestGuardLoadInvalidatesAccountMismatch(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	guard := NewGuard(store)
	owner := uuid.New()
	other := uuid.New()
	guard.Save(accountEntry(uuid.New(), owner))

	if _, ok := guard.Load(Session{AccountID: &other}); ok {
		t.Fatal("entry owned by another account must not load")
	}
	if _, ok := store.Get(); ok {
		t.Fatal("mismatched entry must be purged from the store")
	}
}

func TestGuardLoadInvalidatesAccountEntryForAnonymousSession(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	guard := NewGuard(store)
	guard.Save(accountEntry(uuid.New(), uuid.New()))

	if _, ok := guard.Load(Session{}); ok {
		t.Fatal("account entry must not load in an anonymous session")
	}
	if _, ok := store.Get(); ok {
		t.Fatal("entry must be purged")
	}
}

func TestGuardReconcileUpgradesAfterOwnClaim(t *testing.T) {
	t.Parallel()

	guard := NewGuard(NewMemoryStore())
	draftID := uuid.New()
	accountID := uuid.New()
	guard.Save(guestEntry(draftID))

	entry, ok := guard.Reconcile(Session{AccountID: &accountID}, enums.OwnerKindAccount, &accountID)
	if !ok {
		t.Fatal("own claim must keep the cache entry")
	}
	if entry.OwnerKind != enums.OwnerKindAccount {
		t.Fatalf("expected upgraded owner kind, got %s", entry.OwnerKind)
	}
	if entry.GuestCredential != "" {
		t.Fatal("dead guest credential must be dropped")
	}
}

func TestGuardReconcileInvalidatesForeignClaim(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	guard := NewGuard(store)
	guard.Save(guestEntry(uuid.New()))

	winner := uuid.New()
	loser := uuid.New()
	if _, ok := guard.Reconcile(Session{AccountID: &loser}, enums.OwnerKindAccount, &winner); ok {
		t.Fatal("a draft claimed by someone else must invalidate the cache")
	}
	if _, ok := store.Get(); ok {
		t.Fatal("entry must be purged")
	}
}

func TestGuardWatchReceivesSaveAndInvalidate(t *testing.T) {
	t.Parallel()

	guard := NewGuard(NewMemoryStore())
	events := guard.Watch()

	draftID := uuid.New()
	guard.Save(guestEntry(draftID))
	guard.Invalidate()

	saved := <-events
	if saved.Kind != EventSaved || saved.Entry.DraftID != draftID {
		t.Fatalf("unexpected first event %+v", saved)
	}
	invalidated := <-events
	if invalidated.Kind != EventInvalidated {
		t.Fatalf("unexpected second event %+v", invalidated)
	}
}

func TestClassifyVolatileHosts(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		want enums.ReferenceClass
	}{
		{"https://cdn.inkdrop-gen.ai/session/abc.png", enums.ReferenceClassVolatile},
		{"https://edge.cdn.inkdrop-gen.ai/abc.png", enums.ReferenceClassVolatile},
		{"https://myaccount.blob.core.windows.net/tmp/abc.png", enums.ReferenceClassVolatile},
		{"https://storage.googleapis.com/inkdrop-artifacts/abc.png", enums.ReferenceClassDurable},
		{"not a url", enums.ReferenceClassVolatile},
	}
	for _, tc := range cases {
		if got := Classify(tc.url, nil); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.url, got, tc.want)
		}
	}
}
