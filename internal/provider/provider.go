package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"

	"github.com/reconcile/reconcile/internal/store"
)

// pageSize is the paginated fetch batch, mirroring the teacher's
// updateSongs batchSize constant (cmd/nup/update/server.go).
const pageSize = 50

// Client pulls a user's playlists, liked songs and their tracks from
// Spotify and writes them into a Store, generalizing the teacher's
// updateSongs push loop into a pull loop with the same "paginate, then
// persist each batch" shape.
type Client struct {
	sc  *spotify.Client
	log zerolog.Logger
}

// NewClient wraps an authenticated *spotify.Client.
func NewClient(sc *spotify.Client, log zerolog.Logger) *Client {
	return &Client{sc: sc, log: log.With().Str("component", "provider").Logger()}
}

// Ingest pulls every playlist (skipping ones whose snapshot id hasn't
// changed since the last pull), liked songs, and the tracks they
// reference, persisting them into s. It returns the ids of tracks whose
// static metadata changed, for internal/pipeline's incremental rematch.
func (c *Client) Ingest(ctx context.Context, s *store.Store) ([]string, error) {
	const provider = store.Provider("spotify")

	var changed []string

	playlists, err := c.fetchPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching playlists: %w", err)
	}

	for _, pl := range playlists {
		existing, err := s.GetPlaylist(provider, string(pl.ID))
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.SnapshotID == pl.SnapshotID {
			continue // unchanged playlist, per the snapshot-id skip rule
		}

		if err := s.UpsertPlaylist(&store.Playlist{
			Provider: provider, ID: string(pl.ID), Name: pl.Name,
			OwnerID: string(pl.Owner.ID), OwnerDisplayName: pl.Owner.DisplayName,
			SnapshotID: pl.SnapshotID,
		}); err != nil {
			return nil, err
		}

		items, err := c.fetchPlaylistItems(ctx, pl.ID)
		if err != nil {
			return nil, fmt.Errorf("fetching tracks for playlist %s: %w", pl.ID, err)
		}

		entries := make([]store.PlaylistEntry, 0, len(items))
		for _, item := range items {
			if item.Track.Track == nil {
				continue // local file or podcast episode, not a track
			}
			t := item.Track.Track
			if err := upsertTrackIfChanged(s, provider, t, &changed); err != nil {
				return nil, err
			}
			addedAt, _ := time.Parse(time.RFC3339, item.AddedAt)
			entries = append(entries, store.PlaylistEntry{TrackID: string(t.ID), AddedAt: addedAt})
		}
		if err := s.ReplacePlaylistTracks(provider, string(pl.ID), entries); err != nil {
			return nil, err
		}
	}

	liked, err := c.fetchLikedTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching liked tracks: %w", err)
	}
	for _, st := range liked {
		if err := upsertTrackIfChanged(s, provider, &st.FullTrack, &changed); err != nil {
			return nil, err
		}
		addedAt, _ := time.Parse(time.RFC3339, st.AddedAt)
		if err := s.UpsertLikedEntry(provider, &store.LikedEntry{TrackID: string(st.ID), AddedAt: addedAt}); err != nil {
			return nil, err
		}
	}

	c.log.Info().Int("playlists", len(playlists)).Int("liked", len(liked)).Int("changed", len(changed)).Msg("ingest complete")
	return changed, nil
}

func (c *Client) fetchPlaylists(ctx context.Context) ([]spotify.SimplePlaylist, error) {
	page, err := c.sc.CurrentUsersPlaylists(ctx, spotify.Limit(pageSize))
	if err != nil {
		return nil, err
	}
	var all []spotify.SimplePlaylist
	for {
		all = append(all, page.Playlists...)
		if err := c.sc.NextPage(ctx, page); err == spotify.ErrNoMorePages {
			break
		} else if err != nil {
			return nil, err
		}
	}
	return all, nil
}

func (c *Client) fetchPlaylistItems(ctx context.Context, id spotify.ID) ([]spotify.PlaylistItem, error) {
	page, err := c.sc.GetPlaylistItems(ctx, id, spotify.Limit(pageSize))
	if err != nil {
		return nil, err
	}
	var all []spotify.PlaylistItem
	for {
		all = append(all, page.Items...)
		if err := c.sc.NextPage(ctx, page); err == spotify.ErrNoMorePages {
			break
		} else if err != nil {
			return nil, err
		}
	}
	return all, nil
}

func (c *Client) fetchLikedTracks(ctx context.Context) ([]spotify.SavedTrack, error) {
	page, err := c.sc.CurrentUsersTracks(ctx, spotify.Limit(pageSize))
	if err != nil {
		return nil, err
	}
	var all []spotify.SavedTrack
	for {
		all = append(all, page.Tracks...)
		if err := c.sc.NextPage(ctx, page); err == spotify.ErrNoMorePages {
			break
		} else if err != nil {
			return nil, err
		}
	}
	return all, nil
}

// upsertTrackIfChanged writes t into the store and appends its id to
// *changed when the static metadata differs from what's already there,
// for internal/pipeline's match_tracks incremental rematch.
func upsertTrackIfChanged(s *store.Store, p store.Provider, t *spotify.FullTrack, changed *[]string) error {
	existing, err := s.GetTrack(p, string(t.ID))
	if err != nil {
		return err
	}

	track := trackFromSpotify(p, t)
	if err := s.UpsertTrack(track); err != nil {
		return err
	}
	if existing == nil || !sameTrackMetadata(existing, track) {
		*changed = append(*changed, track.ID)
	}
	return nil
}

func trackFromSpotify(p store.Provider, t *spotify.FullTrack) *store.Track {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	durMS := int(t.Duration)

	track := &store.Track{
		Provider:      p,
		ID:            string(t.ID),
		Name:          t.Name,
		ArtistDisplay: strings.Join(names, ", "),
		Album:         t.Album.Name,
		DurationMS:    &durMS,
	}
	if isrc, ok := t.ExternalIDs["isrc"]; ok && isrc != "" {
		track.ISRC = &isrc
	}
	if len(t.Album.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(t.Album.ReleaseDate[:4]); err == nil {
			track.Year = &year
		}
	}
	return track
}

func sameTrackMetadata(a, b *store.Track) bool {
	return a.Name == b.Name && a.ArtistDisplay == b.ArtistDisplay && a.Album == b.Album &&
		intPtrEqual(a.Year, b.Year) && intPtrEqual(a.DurationMS, b.DurationMS) && strPtrEqual(a.ISRC, b.ISRC)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
