package main

import (
	"galleryserver/internal/model"
	"galleryserver/internal/search"
)

const uncategorized = "Uncategorized"

// albumGroup is the albums of one collection, as listed in sidebars.
type albumGroup struct {
	Name   string
	Albums []model.Album
}

// groupAlbums groups albums by collection name in order of first appearance.
func groupAlbums(albums []model.Album) []albumGroup {
	var groups []albumGroup
	index := map[string]int{}

	for _, album := range albums {
		name := album.CollectionName
		if name == "" {
			name = uncategorized
		}

		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, albumGroup{Name: name})
		}
		groups[i].Albums = append(groups[i].Albums, album)
	}
	return groups
}

// photoGrid is the photo grid of a page: either the default images or the
// results of an effective search.
type photoGrid struct {
	Query     string
	Searching bool
	Images    []model.Image
}

// Empty reports whether the grid has nothing to show.
func (g photoGrid) Empty() bool {
	return len(g.Images) == 0
}

func newPhotoGrid(query string, fallback, results []model.Image) photoGrid {
	query = search.Normalize(query)
	if !search.Effective(query) {
		return photoGrid{Query: query, Images: fallback}
	}
	return photoGrid{Query: query, Searching: true, Images: results}
}

// imageVariant is a downloadable size of an image.
type imageVariant struct {
	Label string
	Name  string
}

func imageVariants(img *model.Image) []imageVariant {
	var out []imageVariant
	for _, v := range []imageVariant{
		{Label: "Small", Name: img.SmallURL},
		{Label: "Medium", Name: img.MediumURL},
		{Label: "Large", Name: img.LargeURL},
		{Label: "Original", Name: img.URL},
	} {
		if v.Name != "" {
			out = append(out, v)
		}
	}
	return out
}

// uploadForm holds the submitted upload fields for re-rendering.
type uploadForm struct {
	Title       string
	Caption     string
	AltText     string
	License     string
	Attribution string
	Privacy     string
	AlbumIDs    map[string]bool
}

// userForm holds the submitted user fields for re-rendering.
type userForm struct {
	ID          string
	Username    string
	Email       string
	DisplayName string
	Role        model.Role
}
