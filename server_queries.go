package main

import (
	"context"

	"galleryserver/internal/api"
	"galleryserver/internal/model"
	"galleryserver/internal/querycache"
)

// Cached reads. Every read goes through the query cache under the caller's
// credential scope; writes invalidate the resources they change.

func scopeOf(ctx context.Context) querycache.Scope {
	return querycache.ScopeFor(api.SessionToken(ctx))
}

func cached[T any](ctx context.Context, s *server, key querycache.Key, fetch func(context.Context) (T, error)) (T, error) {
	return querycache.Get(ctx, s.cache, scopeOf(ctx), key, fetch)
}

func (s *server) listAlbums(ctx context.Context) ([]model.Album, error) {
	return cached(ctx, s, querycache.Key{Resource: querycache.Albums}, s.api.ListAlbums)
}

func (s *server) album(ctx context.Context, id string) (*model.AlbumWithImages, error) {
	return cached(ctx, s, querycache.Key{Resource: querycache.Album, Param: id}, func(ctx context.Context) (*model.AlbumWithImages, error) {
		return s.api.GetAlbum(ctx, id)
	})
}

func (s *server) listCollections(ctx context.Context) ([]model.Collection, error) {
	return cached(ctx, s, querycache.Key{Resource: querycache.Collections}, s.api.ListCollections)
}

func (s *server) home(ctx context.Context) (*model.Home, error) {
	return cached(ctx, s, querycache.Key{Resource: querycache.Home}, s.api.HomeImages)
}

func (s *server) search(ctx context.Context, query string) ([]model.Image, error) {
	return cached(ctx, s, querycache.Key{Resource: querycache.Search, Param: query}, func(ctx context.Context) ([]model.Image, error) {
		return s.api.SearchImages(ctx, query)
	})
}

func (s *server) image(ctx context.Context, id string) (*model.Image, error) {
	return cached(ctx, s, querycache.Key{Resource: querycache.Image, Param: id}, func(ctx context.Context) (*model.Image, error) {
		return s.api.GetImage(ctx, id)
	})
}

func (s *server) comments(ctx context.Context, imageID string) ([]model.Comment, error) {
	return cached(ctx, s, querycache.Key{Resource: querycache.Comments, Param: imageID}, func(ctx context.Context) ([]model.Comment, error) {
		return s.api.ListComments(ctx, imageID)
	})
}

func (s *server) listUsers(ctx context.Context) ([]model.User, error) {
	return cached(ctx, s, querycache.Key{Resource: querycache.Users}, s.api.ListUsers)
}

// Invalidation sets per kind of write.

func (s *server) albumsChanged() {
	s.cache.InvalidateResource(querycache.Albums, querycache.Album, querycache.Home, querycache.Collections)
}

func (s *server) imagesChanged() {
	s.cache.InvalidateResource(querycache.Home, querycache.Search, querycache.Image, querycache.Album)
}

// commentsChanged drops the writer's view of one image's comments. Other
// viewers pick the change up when their entry expires.
func (s *server) commentsChanged(ctx context.Context, imageID string) {
	s.cache.Invalidate(scopeOf(ctx), querycache.Key{Resource: querycache.Comments, Param: imageID})
}

func (s *server) usersChanged() {
	s.cache.InvalidateResource(querycache.Users, querycache.SiteInfo)
}

func (s *server) settingsChanged() {
	s.cache.InvalidateResource(querycache.SiteInfo)
}
