package drafts

import (
	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/db/models"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
	pkgerrors "github.com/inkdrop-studio/inkdrop-backend/pkg/errors"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/security"
)

// Identity carries whatever proof of ownership the caller presented: a guest
// credential, an authenticated account, or both during a claim.
type Identity struct {
	AccountID       *uuid.UUID
	GuestCredential string
}

// Authorize verifies that the identity owns the draft. Guest drafts require
// the matching credential; account drafts require the matching account.
func Authorize(draft *models.Draft, identity Identity) error {
	if draft == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
	}

	switch draft.OwnerKind {
	case enums.OwnerKindGuest:
		if draft.GuestCredentialHash == nil || identity.GuestCredential == "" {
			return pkgerrors.New(pkgerrors.CodeForbidden, "draft requires its guest credential")
		}
		ok, err := security.VerifyCredential(identity.GuestCredential, *draft.GuestCredentialHash)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify guest credential")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeForbidden, "guest credential does not match")
		}
		return nil

	case enums.OwnerKindAccount:
		if draft.AccountID == nil || identity.AccountID == nil || *draft.AccountID != *identity.AccountID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "draft belongs to a different account")
		}
		return nil
	}

	return pkgerrors.New(pkgerrors.CodeInternal, "draft has unknown owner kind")
}
