package policy

import (
	"testing"

	"yamdb/internal/apperrors"
	"yamdb/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
)

var (
	plainUser = &Actor{UserID: "u-1", Username: "alice", Role: models.RoleUser}
	otherUser = &Actor{UserID: "u-2", Username: "bob", Role: models.RoleUser}
	moderator = &Actor{UserID: "m-1", Username: "mod", Role: models.RoleModerator}
	admin     = &Actor{UserID: "a-1", Username: "root", Role: models.RoleAdmin}
	superuser = &Actor{UserID: "s-1", Username: "su", Role: models.RoleUser, IsSuperuser: true}
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		want    Capability
		wantErr error
	}{
		{"anonymous reads titles", Request{Kind: KindTitle, Action: ActionRead}, ReadPublic, nil},
		{"anonymous reads comments", Request{Kind: KindComment, Action: ActionRead}, ReadPublic, nil},
		{"anonymous cannot list users", Request{Kind: KindUser, Action: ActionRead}, Deny, apperrors.ErrUnauthenticated},
		{"anonymous cannot review", Request{Kind: KindReview, Action: ActionCreate}, Deny, apperrors.ErrUnauthenticated},
		{"anonymous has no profile", Request{Kind: KindProfile, Action: ActionRead}, Deny, apperrors.ErrUnauthenticated},

		{"user reads profile", Request{Actor: plainUser, Kind: KindProfile, Action: ActionRead}, SelfProfile, nil},
		{"user updates profile", Request{Actor: plainUser, Kind: KindProfile, Action: ActionUpdate}, SelfProfile, nil},

		{"user cannot create category", Request{Actor: plainUser, Kind: KindCategory, Action: ActionCreate}, Deny, apperrors.ErrForbidden},
		{"moderator cannot delete genre", Request{Actor: moderator, Kind: KindGenre, Action: ActionDelete}, Deny, apperrors.ErrForbidden},
		{"admin creates title", Request{Actor: admin, Kind: KindTitle, Action: ActionCreate}, AdminOnly, nil},
		{"superuser manages users", Request{Actor: superuser, Kind: KindUser, Action: ActionUpdate}, AdminOnly, nil},
		{"user cannot list users", Request{Actor: plainUser, Kind: KindUser, Action: ActionRead}, Deny, apperrors.ErrForbidden},

		{"user creates review", Request{Actor: plainUser, Kind: KindReview, Action: ActionCreate}, WriteOwn, nil},
		{"user edits own review", Request{Actor: plainUser, Kind: KindReview, Action: ActionUpdate, OwnerID: "u-1"}, WriteOwn, nil},
		{"user cannot delete others review", Request{Actor: plainUser, Kind: KindReview, Action: ActionDelete, OwnerID: "u-2"}, Deny, apperrors.ErrForbidden},
		{"moderator deletes others review", Request{Actor: moderator, Kind: KindReview, Action: ActionDelete, OwnerID: "u-2"}, ModeratorOverride, nil},
		{"moderator edits own comment", Request{Actor: moderator, Kind: KindComment, Action: ActionUpdate, OwnerID: "m-1"}, WriteOwn, nil},
		{"admin deletes others comment", Request{Actor: admin, Kind: KindComment, Action: ActionDelete, OwnerID: "u-1"}, ModeratorOverride, nil},
		{"superuser deletes others comment", Request{Actor: superuser, Kind: KindComment, Action: ActionDelete, OwnerID: "u-1"}, ModeratorOverride, nil},
		{"other user cannot edit comment", Request{Actor: otherUser, Kind: KindComment, Action: ActionUpdate, OwnerID: "u-1"}, Deny, apperrors.ErrForbidden},
		{"empty owner never matches", Request{Actor: &Actor{Role: models.RoleUser}, Kind: KindComment, Action: ActionDelete}, Deny, apperrors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Authorize(tt.req)
			assert.Equal(t, tt.want, got)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCanChangeRole(t *testing.T) {
	assert.False(t, CanChangeRole(nil))
	assert.False(t, CanChangeRole(plainUser))
	assert.False(t, CanChangeRole(moderator))
	assert.True(t, CanChangeRole(admin))
	assert.True(t, CanChangeRole(superuser))
}

func TestCapabilityString(t *testing.T) {
	assert.Equal(t, "moderator_override", ModeratorOverride.String())
	assert.Equal(t, "deny", Deny.String())
}
