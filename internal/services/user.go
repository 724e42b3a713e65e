package services

import (
	"context"
	"net/http"
)

// UserProfile retrieves the current authenticated user's profile from the API.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUserProfile returns the cached profile when one is stored, fetching it otherwise.
func (s *SpotifyService) CurrentUserProfile(ctx context.Context) (*SpotifyUser, error) {
	if s.profiles != nil {
		if profile, ok := s.profiles.LoadProfile(); ok {
			return profile, nil
		}
	}
	return s.RefreshUserProfile(ctx)
}

// RefreshUserProfile fetches the profile and replaces the cached copy.
//
// A failed cache write is logged; the fetched profile is still returned.
func (s *SpotifyService) RefreshUserProfile(ctx context.Context) (*SpotifyUser, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return nil, err
	}
	if s.profiles != nil {
		if err := s.profiles.SaveProfile(*user); err != nil {
			s.client.logger.Error("could not cache user profile", "error", err)
		} else {
			s.client.logger.Debug("cached user profile", "user", user.ID)
		}
	}
	return user, nil
}
