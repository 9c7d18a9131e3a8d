/* api.go
 * This file contains the public methods for interacting with the participant registry. The bot only talks to the
 * store through these methods, so validation always runs before a write
 */

package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/vlakddp4/publicbot/api/logic"
	"github.com/vlakddp4/publicbot/api/media"
	"github.com/vlakddp4/publicbot/api/shared"
	"github.com/vlakddp4/publicbot/api/store"
)

// searchBatchSize is how many rows a search reads from the store per page
const searchBatchSize = 200

// API provides methods for interacting with the participant registry
type API struct {
	Store    store.Interface
	Mirror   media.Mirror
	PageSize int
}

// ParticipantPage is one page of the participant listing
type ParticipantPage struct {
	logic.Page
	Participants []shared.Participant
}

// NewAPI opens the store described by cfg
// Preconditions: Receives a context, a store Config and the mirror used for profile images (nil for pass-through)
// Postconditions: Returns an API with an open store, or an error if the store cannot be opened
func NewAPI(ctx context.Context, cfg store.Config, mirror media.Mirror) (*API, error) {
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return New(s, mirror), nil
}

// New wraps an already open store
func New(s store.Interface, mirror media.Mirror) *API {
	if mirror == nil {
		mirror = media.Passthrough{}
	}
	return &API{
		Store:    s,
		Mirror:   mirror,
		PageSize: logic.DefaultPageSize,
	}
}

// Close closes the underlying store
func (a *API) Close() error {
	return a.Store.Close()
}

// Register validates a registration and upserts it. A re-registration overwrites the registration fields only.
// Preconditions: Receives the invoking user and the registration they submitted
// Postconditions: Returns nil on success, a *logic.ValidationError if the input is invalid (nothing is written), or a
// *store.StorageError
func (a *API) Register(ctx context.Context, user shared.User, reg shared.Registration) error {
	if err := logic.ValidateParticipation(reg.DiscordNickname, reg.IngameNickname, reg.RankPoints, reg.StatsLink); err != nil {
		return err
	}
	return a.Store.Upsert(ctx, shared.NewParticipant(user, reg))
}

// Cancel removes the user's registration. Cancelling without a registration is not an error
func (a *API) Cancel(ctx context.Context, userID int64) error {
	return a.Store.Delete(ctx, userID)
}

// MyInfo returns the user's registration, or ErrNotRegistered
func (a *API) MyInfo(ctx context.Context, userID int64) (shared.Participant, error) {
	p, err := a.Store.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return shared.Participant{}, ErrNotRegistered
	}
	return p, err
}

// IsRegistered reports whether the user has a registration
func (a *API) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	return a.Store.Exists(ctx, userID)
}

// UpdateProfile replaces the user's self introduction and profile image. Both fields are written: an empty
// introduction or a nil image clears the stored value.
// Preconditions: Receives the user id, the new introduction and an optional image attachment
// Postconditions: Returns the stored profile, or a *logic.ValidationError for a non-image attachment, ErrNotRegistered
// if the user has no registration, ErrImageUnavailable if the image could not be mirrored, or a *store.StorageError
func (a *API) UpdateProfile(ctx context.Context, userID int64, selfIntroduction string, image *shared.Attachment) (shared.Profile, error) {
	if image != nil {
		if err := logic.ValidateProfileImage(image.ContentType); err != nil {
			return shared.Profile{}, err
		}
	}

	registered, err := a.Store.Exists(ctx, userID)
	if err != nil {
		return shared.Profile{}, err
	}
	if !registered {
		return shared.Profile{}, ErrNotRegistered
	}

	profile := shared.Profile{SelfIntroduction: selfIntroduction}
	if image != nil {
		url, err := a.Mirror.Mirror(ctx, userID, *image)
		if err != nil {
			return shared.Profile{}, fmt.Errorf("%w: %v", ErrImageUnavailable, err)
		}
		profile.ImageURL = url
	}

	err = a.Store.UpdateProfile(ctx, userID, profile)
	if errors.Is(err, store.ErrNotFound) {
		// cancelled between the existence check and the update
		return shared.Profile{}, ErrNotRegistered
	}
	if err != nil {
		return shared.Profile{}, err
	}
	return profile, nil
}

// ListParticipants returns one page of the participant listing. Nothing is cached: every call counts and reads again.
// Preconditions: Receives the requested page number, starting at 1
// Postconditions: Returns the page and its participants, a *logic.PageOutOfRangeError if the page does not exist
// (including any page of an empty listing), or a *store.StorageError
func (a *API) ListParticipants(ctx context.Context, pageNumber int) (ParticipantPage, error) {
	total, err := a.Store.Count(ctx)
	if err != nil {
		return ParticipantPage{}, err
	}
	page, err := logic.Paginate(total, pageNumber, a.pageSize())
	if err != nil {
		return ParticipantPage{}, err
	}
	participants, err := a.Store.Page(ctx, page.Limit(), page.Offset)
	if err != nil {
		return ParticipantPage{}, err
	}
	return ParticipantPage{Page: page, Participants: participants}, nil
}

// SearchParticipants returns up to limit participants whose nicknames fuzzily match query, best match first
func (a *API) SearchParticipants(ctx context.Context, query string, limit int) ([]shared.Participant, error) {
	var all []shared.Participant
	for offset := 0; ; offset += searchBatchSize {
		batch, err := a.Store.Page(ctx, searchBatchSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < searchBatchSize {
			break
		}
	}

	matches := logic.RankByNickname(query, all)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (a *API) pageSize() int {
	if a.PageSize < 1 {
		return logic.DefaultPageSize
	}
	return a.PageSize
}
